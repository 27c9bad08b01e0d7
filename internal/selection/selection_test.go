package selection

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"motoshop/internal/models"
)

func serviceEditor() *Editor[models.Service] {
	return NewEditor(Adapter[models.Service]{
		ID:    func(s models.Service) int64 { return s.ID },
		Name:  func(s models.Service) string { return s.Name },
		Price: func(s models.Service) float64 { return s.Price },
		Stock: func(models.Service) (int, bool) { return 0, false },
	})
}

func partEditor() *Editor[models.Part] {
	return NewEditor(Adapter[models.Part]{
		ID:    func(p models.Part) int64 { return p.ID },
		Name:  func(p models.Part) string { return p.Name },
		Price: func(p models.Part) float64 { return p.Price },
		Stock: func(p models.Part) (int, bool) { return p.Stock, true },
	})
}

func TestAdd_DuplicateIsNoOp(t *testing.T) {
	e := serviceEditor()
	svc := models.Service{ID: 1, Name: "Oil change", Price: 50}

	if !e.Add(svc) {
		t.Fatal("first Add should succeed")
	}
	if e.Add(svc) {
		t.Error("second Add of same item should be rejected")
	}
	if e.Len() != 1 {
		t.Errorf("expected 1 line, got %d", e.Len())
	}
}

func TestAdd_SnapshotsPrice(t *testing.T) {
	e := serviceEditor()
	svc := models.Service{ID: 1, Name: "Oil change", Price: 50}
	e.Add(svc)

	// A later catalog price change must not alter the selected line.
	svc.Price = 80
	if got := e.Lines()[0].UnitPrice; got != 50 {
		t.Errorf("expected snapshotted price 50, got %v", got)
	}
}

func TestAddRemove_NeverDuplicates(t *testing.T) {
	e := partEditor()
	rng := rand.New(rand.NewSource(42))
	catalog := make([]models.Part, 10)
	for i := range catalog {
		catalog[i] = models.Part{ID: int64(i + 1), Stock: 5, Price: float64(i)}
	}

	for op := 0; op < 500; op++ {
		p := catalog[rng.Intn(len(catalog))]
		if rng.Intn(2) == 0 {
			e.Add(p)
		} else {
			e.Remove(p.ID)
		}
		seen := map[int64]bool{}
		for _, l := range e.Lines() {
			if seen[l.ItemID] {
				t.Fatalf("duplicate item %d after %d ops", l.ItemID, op+1)
			}
			seen[l.ItemID] = true
		}
	}
}

func TestSetQuantity_Bounds(t *testing.T) {
	e := partEditor()
	e.Add(models.Part{ID: 1, Name: "Brake pad", Price: 20, Stock: 10})

	var qe *QuantityError

	err := e.SetQuantity(1, 0)
	if !errors.As(err, &qe) || qe.Reason != ReasonBelowMinimum {
		t.Errorf("SetQuantity(1, 0): expected below_minimum error, got %v", err)
	}
	if got := e.Lines()[0].Quantity; got != 1 {
		t.Errorf("line changed on rejected edit: qty %d", got)
	}

	err = e.SetQuantity(1, 11)
	if !errors.As(err, &qe) || qe.Reason != ReasonExceedsStock {
		t.Errorf("SetQuantity(1, 11): expected exceeds_stock error, got %v", err)
	}
	if got := e.Lines()[0].Quantity; got != 1 {
		t.Errorf("line changed on rejected edit: qty %d", got)
	}

	if err := e.SetQuantity(1, 10); err != nil {
		t.Errorf("SetQuantity at exactly available stock should succeed, got %v", err)
	}
	if got := e.Lines()[0].Quantity; got != 10 {
		t.Errorf("expected qty 10, got %d", got)
	}

	err = e.SetQuantity(99, 2)
	if !errors.As(err, &qe) || qe.Reason != ReasonUnknownItem {
		t.Errorf("SetQuantity on unknown item: expected unknown_item error, got %v", err)
	}
}

func TestSetQuantity_ServicesUnconstrained(t *testing.T) {
	e := serviceEditor()
	e.Add(models.Service{ID: 1, Price: 50})
	if err := e.SetQuantity(1, 500); err != nil {
		t.Errorf("services have no stock cap, got %v", err)
	}
}

func TestSetComment(t *testing.T) {
	e := serviceEditor()
	e.Add(models.Service{ID: 1})
	e.SetComment(1, "front wheel only")
	if got := e.Lines()[0].Comment; got != "front wheel only" {
		t.Errorf("comment = %q", got)
	}
	e.SetComment(1, "")
	if got := e.Lines()[0].Comment; got != "" {
		t.Errorf("comment replace should be unconditional, got %q", got)
	}
	e.SetComment(99, "ignored") // absent id, no panic
}

func TestRemove_AbsentIsNoOp(t *testing.T) {
	e := serviceEditor()
	e.Add(models.Service{ID: 1})
	e.Remove(42)
	if e.Len() != 1 {
		t.Errorf("expected 1 line, got %d", e.Len())
	}
	e.Remove(1)
	if e.Len() != 0 {
		t.Errorf("expected 0 lines, got %d", e.Len())
	}
}

func TestAvailableToAdd(t *testing.T) {
	e := partEditor()
	catalog := []models.Part{
		{ID: 1, Stock: 5},
		{ID: 2, Stock: 0}, // out of stock, never offered
		{ID: 3, Stock: 2},
	}
	e.Add(catalog[0])

	avail := e.AvailableToAdd(catalog)
	if len(avail) != 1 || avail[0].ID != 3 {
		t.Errorf("expected only part 3 available, got %+v", avail)
	}
}

func TestSubtotal_OrderIndependent(t *testing.T) {
	a := serviceEditor()
	b := serviceEditor()
	items := []models.Service{
		{ID: 1, Price: 50},
		{ID: 2, Price: 19.99},
		{ID: 3, Price: 120.5},
	}
	for _, it := range items {
		a.Add(it)
	}
	for i := len(items) - 1; i >= 0; i-- {
		b.Add(items[i])
	}
	a.SetQuantity(1, 2)
	b.SetQuantity(1, 2)

	want := 50*2 + 19.99 + 120.5
	if got := a.Subtotal(); math.Abs(got-want) > 1e-9 {
		t.Errorf("subtotal = %v, want %v", got, want)
	}
	if diff := math.Abs(a.Subtotal() - b.Subtotal()); diff > 1e-9 {
		t.Errorf("subtotal depends on insertion order: %v vs %v", a.Subtotal(), b.Subtotal())
	}
}

func TestSelection_DoesNotMutateCatalogStock(t *testing.T) {
	e := partEditor()
	p := models.Part{ID: 1, Stock: 10, MinStock: 5, Price: 20}
	e.Add(p)
	e.SetQuantity(1, 4)

	// The catalog's own stock count is untouched by selection.
	if p.Stock != 10 {
		t.Errorf("catalog stock mutated: %d", p.Stock)
	}
	if got := e.Lines()[0].AvailableStock; got != 10 {
		t.Errorf("recorded available stock = %d, want 10", got)
	}
}
