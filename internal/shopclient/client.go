// Package shopclient is the single REST consumer the dashboard code
// goes through for catalog reads and order submission. It owns the
// degraded-mode fallback (active-only fetch falling back to the full
// list), the error taxonomy the UI renders, and a memoized
// read-through cache with explicit invalidation so list pages, pickers
// and forms stop re-implementing their own fetch sequences.
package shopclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"motoshop/internal/models"
	"motoshop/internal/wizard"
)

// ErrPermission marks a 403 from the backend; the UI shows a specific
// permission message for it instead of the generic failure text.
var ErrPermission = errors.New("permission denied")

// Client talks to the motoshop API.
type Client struct {
	base    string
	session string
	http    *http.Client

	mu       sync.Mutex
	services []models.Service
	parts    []models.Part
	hasSvc   bool
	hasParts bool
}

// New creates a client for the API at base (e.g. "http://localhost:9000").
func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetSession attaches a session token sent as the auth cookie.
func (c *Client) SetSession(token string) { c.session = token }

// FetchServices returns the service catalog, serving the memoized copy
// when present. The first attempt asks for active services only; on
// any failure it retries once against the full list (degraded mode).
func (c *Client) FetchServices(ctx context.Context) ([]models.Service, error) {
	c.mu.Lock()
	if c.hasSvc {
		out := c.services
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	var items []models.Service
	err := c.getJSON(ctx, "/api/v1/services?active=true", &items)
	if err != nil {
		if errors.Is(err, ErrPermission) {
			return nil, err
		}
		if err = c.getJSON(ctx, "/api/v1/services", &items); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.services, c.hasSvc = items, true
	c.mu.Unlock()
	return items, nil
}

// FetchParts returns the spare-part catalog with the same fallback and
// memoization behavior as FetchServices.
func (c *Client) FetchParts(ctx context.Context) ([]models.Part, error) {
	c.mu.Lock()
	if c.hasParts {
		out := c.parts
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	var items []models.Part
	err := c.getJSON(ctx, "/api/v1/parts?active=true", &items)
	if err != nil {
		if errors.Is(err, ErrPermission) {
			return nil, err
		}
		if err = c.getJSON(ctx, "/api/v1/parts", &items); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.parts, c.hasParts = items, true
	c.mu.Unlock()
	return items, nil
}

// Invalidate drops the memoized catalogs; the next fetch re-reads the
// backend. Called after any create/update/delete so list views only
// render awaited, consistent data.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.hasSvc, c.hasParts = false, false
	c.services, c.parts = nil, nil
	c.mu.Unlock()
}

// SubmitFulfillment implements wizard.Submitter by posting the payload
// to the order's fulfillment endpoint.
func (c *Client) SubmitFulfillment(ctx context.Context, p wizard.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode fulfillment: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST",
		c.base+"/api/v1/orders/"+p.OrderID+"/fulfillment", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit fulfillment: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == 403:
		return fmt.Errorf("submit fulfillment: %w", ErrPermission)
	case resp.StatusCode >= 400:
		return fmt.Errorf("submit fulfillment: backend returned %d", resp.StatusCode)
	}

	c.Invalidate()
	return nil
}

// getJSON fetches an API path and decodes the data envelope.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.base+path, nil)
	if err != nil {
		return err
	}
	c.addAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == 403:
		return fmt.Errorf("fetch %s: %w", path, ErrPermission)
	case resp.StatusCode != 200:
		return fmt.Errorf("fetch %s: backend returned %d", path, resp.StatusCode)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("fetch %s: decode: %w", path, err)
	}
	return json.Unmarshal(envelope.Data, out)
}

func (c *Client) addAuth(req *http.Request) {
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: "motoshop_session", Value: c.session})
	}
}

// CatalogMessage renders the empty-catalog state for a parts picker,
// distinguishing permission failures, an empty catalog, and a catalog
// where nothing is in stock.
func CatalogMessage(err error, parts []models.Part) string {
	if err != nil {
		if errors.Is(err, ErrPermission) {
			return "you do not have permission to view the parts catalog"
		}
		return "could not load the parts catalog"
	}
	if len(parts) == 0 {
		return "no parts exist yet"
	}
	for _, p := range parts {
		if p.Stock > 0 {
			return ""
		}
	}
	return "no parts have stock available"
}
