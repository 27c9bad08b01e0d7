// Package models contains the shared data structures for the motoshop API.
package models

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Service is a catalog entry for labor the shop offers.
type Service struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	DurationMin int     `json:"duration_min"`
	Active      bool    `json:"active"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// Part is a catalog entry for a spare part (repuesto) with stock tracking.
type Part struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"min_stock"`
	StockBucket string  `json:"stock_bucket,omitempty"`
	Active      bool    `json:"active"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// StockMovement is one entry in a part's stock history. StockBefore and
// StockAfter snapshot the part's stock around the movement.
type StockMovement struct {
	ID          int64  `json:"id"`
	PartID      int64  `json:"part_id"`
	Type        string `json:"type"`
	Qty         int    `json:"qty"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	Reference   string `json:"reference"`
	Notes       string `json:"notes"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Order is a repair order for one motorcycle.
type Order struct {
	ID             string      `json:"id"`
	Customer       string      `json:"customer"`
	Motorcycle     string      `json:"motorcycle"`
	Plate          string      `json:"plate"`
	Status         string      `json:"status"`
	GeneralComment string      `json:"general_comment"`
	Total          float64     `json:"total"`
	CreatedAt      string      `json:"created_at,omitempty"`
	UpdatedAt      string      `json:"updated_at,omitempty"`
	StartedAt      string      `json:"started_at,omitempty"`
	Services       []OrderLine `json:"services,omitempty"`
	Parts          []OrderLine `json:"parts,omitempty"`
}

// OrderLine is one service or part attached to an order. UnitPrice is the
// catalog price snapshot taken when the line was attached.
type OrderLine struct {
	ID        int64   `json:"id"`
	OrderID   string  `json:"order_id"`
	ItemID    int64   `json:"item_id"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
	Comment   string  `json:"comment"`
}

// User is a staff account.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
}

// AuditEntry is one row of the audit log.
type AuditEntry struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}
