// Package selection implements the selected-line collections behind the
// order fulfillment dialog. One generic Editor serves both services and
// spare parts; the Adapter tells it how to read an item's identity,
// price and (for parts) available stock.
package selection

import "fmt"

// Line is one selected catalog item with its editable quantity and
// comment. UnitPrice is snapshotted from the catalog at Add time and is
// not affected by later catalog price changes. AvailableStock caps the
// quantity for stock-constrained items; it is the catalog's stock count
// at Add time and selecting a line never mutates the catalog itself.
type Line struct {
	ItemID         int64   `json:"item_id"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unit_price"`
	Quantity       int     `json:"qty"`
	Comment        string  `json:"comment"`
	AvailableStock int     `json:"available_stock,omitempty"`
	StockLimited   bool    `json:"stock_limited,omitempty"`
}

// Adapter describes how the editor reads a catalog item type.
// Stock returns the available quantity and whether it constrains
// selection (true for parts, false for services).
type Adapter[T any] struct {
	ID    func(T) int64
	Name  func(T) string
	Price func(T) float64
	Stock func(T) (int, bool)
}

// QuantityError reports why a quantity mutation was rejected. The line
// is left unchanged whenever one is returned.
type QuantityError struct {
	ItemID    int64
	Requested int
	Reason    QuantityErrorReason
}

// QuantityErrorReason distinguishes the rejection causes so callers can
// tell "at the limit" from "bad request" instead of a silent no-op.
type QuantityErrorReason string

const (
	ReasonBelowMinimum QuantityErrorReason = "below_minimum"
	ReasonExceedsStock QuantityErrorReason = "exceeds_stock"
	ReasonUnknownItem  QuantityErrorReason = "unknown_item"
)

func (e *QuantityError) Error() string {
	return fmt.Sprintf("quantity %d rejected for item %d: %s", e.Requested, e.ItemID, e.Reason)
}

// Editor maintains an ordered collection of selected lines with unique
// item IDs.
type Editor[T any] struct {
	adapter Adapter[T]
	lines   []Line
}

// NewEditor creates an empty editor for the given item adapter.
func NewEditor[T any](a Adapter[T]) *Editor[T] {
	return &Editor[T]{adapter: a}
}

// Add appends a new line for the item with quantity 1 and an empty
// comment. Returns false without changes if the item is already
// selected.
func (e *Editor[T]) Add(item T) bool {
	id := e.adapter.ID(item)
	if e.find(id) >= 0 {
		return false
	}
	stock, limited := e.adapter.Stock(item)
	e.lines = append(e.lines, Line{
		ItemID:         id,
		Name:           e.adapter.Name(item),
		UnitPrice:      e.adapter.Price(item),
		Quantity:       1,
		AvailableStock: stock,
		StockLimited:   limited,
	})
	return true
}

// SetQuantity updates a line's quantity. Quantities below 1, or above
// the line's recorded available stock for stock-limited items, return a
// QuantityError and leave the line unchanged.
func (e *Editor[T]) SetQuantity(id int64, qty int) error {
	i := e.find(id)
	if i < 0 {
		return &QuantityError{ItemID: id, Requested: qty, Reason: ReasonUnknownItem}
	}
	if qty < 1 {
		return &QuantityError{ItemID: id, Requested: qty, Reason: ReasonBelowMinimum}
	}
	if e.lines[i].StockLimited && qty > e.lines[i].AvailableStock {
		return &QuantityError{ItemID: id, Requested: qty, Reason: ReasonExceedsStock}
	}
	e.lines[i].Quantity = qty
	return nil
}

// SetComment replaces a line's comment. Unknown IDs are ignored.
func (e *Editor[T]) SetComment(id int64, text string) {
	if i := e.find(id); i >= 0 {
		e.lines[i].Comment = text
	}
}

// Remove drops the line for the given item. Absent IDs are not an error.
func (e *Editor[T]) Remove(id int64) {
	if i := e.find(id); i >= 0 {
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
	}
}

// AvailableToAdd filters the catalog to items not yet selected; for
// stock-limited items it also drops those with nothing in stock.
func (e *Editor[T]) AvailableToAdd(items []T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if e.find(e.adapter.ID(it)) >= 0 {
			continue
		}
		if stock, limited := e.adapter.Stock(it); limited && stock <= 0 {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Subtotal sums price times quantity over all lines. The result keeps
// full float precision; rounding is a display concern.
func (e *Editor[T]) Subtotal() float64 {
	var sum float64
	for _, l := range e.lines {
		sum += l.UnitPrice * float64(l.Quantity)
	}
	return sum
}

// Lines returns a copy of the selected lines in selection order.
func (e *Editor[T]) Lines() []Line {
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// Len returns the number of selected lines.
func (e *Editor[T]) Len() int { return len(e.lines) }

// Reset drops all selected lines.
func (e *Editor[T]) Reset() { e.lines = nil }

func (e *Editor[T]) find(id int64) int {
	for i := range e.lines {
		if e.lines[i].ItemID == id {
			return i
		}
	}
	return -1
}
