package shopclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"motoshop/internal/models"
	"motoshop/internal/wizard"
)

func respond(w http.ResponseWriter, data interface{}) {
	json.NewEncoder(w).Encode(models.APIResponse{Data: data})
}

func TestFetchServices_ActiveOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/services" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("active") != "true" {
			t.Errorf("expected active=true on first attempt")
		}
		respond(w, []models.Service{{ID: 1, Name: "Oil change"}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.FetchServices(context.Background())
	if err != nil {
		t.Fatalf("FetchServices: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Oil change" {
		t.Errorf("got %+v", got)
	}
}

func TestFetchServices_FallbackToAll(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.RawQuery)
		if r.URL.Query().Get("active") == "true" {
			w.WriteHeader(500)
			return
		}
		respond(w, []models.Service{{ID: 1}, {ID: 2}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.FetchServices(context.Background())
	if err != nil {
		t.Fatalf("expected degraded-mode fallback to succeed, got %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 services from full list, got %d", len(got))
	}
	if len(calls) != 2 {
		t.Errorf("expected exactly one fallback retry, got calls %v", calls)
	}
}

func TestFetchServices_BothFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.FetchServices(context.Background()); err == nil {
		t.Fatal("expected error when both attempts fail")
	}
}

func TestFetch_PermissionMapped(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(403)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchParts(context.Background())
	if !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}
	// A 403 is not a degraded-mode case; no point retrying as all-items.
	if calls != 1 {
		t.Errorf("expected no fallback after 403, got %d calls", calls)
	}
}

func TestFetch_Memoized(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		respond(w, []models.Part{{ID: 1, Stock: 3}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()
	c.FetchParts(ctx)
	c.FetchParts(ctx)
	if calls != 1 {
		t.Errorf("expected memoized second read, got %d calls", calls)
	}

	c.Invalidate()
	c.FetchParts(ctx)
	if calls != 2 {
		t.Errorf("expected re-fetch after Invalidate, got %d calls", calls)
	}
}

func TestSubmitFulfillment(t *testing.T) {
	var gotPath string
	var gotPayload wizard.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		respond(w, map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	p := wizard.Payload{OrderID: "ORD-2026-0001", Status: "in_progress", Total: 120}
	if err := c.SubmitFulfillment(context.Background(), p); err != nil {
		t.Fatalf("SubmitFulfillment: %v", err)
	}
	if gotPath != "/api/v1/orders/ORD-2026-0001/fulfillment" {
		t.Errorf("posted to %s", gotPath)
	}
	if gotPayload.Total != 120 || gotPayload.Status != "in_progress" {
		t.Errorf("payload = %+v", gotPayload)
	}
}

func TestSubmitFulfillment_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.SubmitFulfillment(context.Background(), wizard.Payload{OrderID: "ORD-X"})
	if !errors.Is(err, ErrPermission) {
		t.Errorf("expected ErrPermission, got %v", err)
	}
}

func TestCatalogMessage(t *testing.T) {
	if msg := CatalogMessage(ErrPermission, nil); msg != "you do not have permission to view the parts catalog" {
		t.Errorf("permission message = %q", msg)
	}
	if msg := CatalogMessage(errors.New("boom"), nil); msg != "could not load the parts catalog" {
		t.Errorf("generic message = %q", msg)
	}
	if msg := CatalogMessage(nil, []models.Part{}); msg != "no parts exist yet" {
		t.Errorf("empty catalog message = %q", msg)
	}
	parts := []models.Part{{ID: 1, Stock: 0}, {ID: 2, Stock: 0}}
	if msg := CatalogMessage(nil, parts); msg != "no parts have stock available" {
		t.Errorf("no-stock message = %q", msg)
	}
	parts[1].Stock = 4
	if msg := CatalogMessage(nil, parts); msg != "" {
		t.Errorf("healthy catalog should have no message, got %q", msg)
	}
}
