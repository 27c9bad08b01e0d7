package main

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"motoshop/internal/catalog"
)

var (
	errPartNotFound      = errors.New("part not found")
	errInsufficientStock = errors.New("resulting stock would be negative")
)

// applyMovementTx applies one stock movement inside a transaction:
// updates the part's stock and records the movement with before/after
// snapshots. Entry and return add, exit, transfer and shrinkage
// subtract, adjustment and inventory_count set the absolute level.
func applyMovementTx(tx *sql.Tx, partID int64, mtype string, qty int, reference, notes, user string) (before, after int, err error) {
	err = tx.QueryRow("SELECT stock FROM parts WHERE id=? AND deleted=0", partID).Scan(&before)
	if err != nil {
		return 0, 0, errPartNotFound
	}

	switch mtype {
	case "entry", "return":
		after = before + qty
	case "exit", "transfer", "shrinkage":
		after = before - qty
	case "adjustment", "inventory_count":
		after = qty
	}
	if after < 0 {
		return before, after, errInsufficientStock
	}

	if _, err = tx.Exec("UPDATE parts SET stock=?,updated_at=CURRENT_TIMESTAMP WHERE id=?", after, partID); err != nil {
		return before, after, err
	}
	_, err = tx.Exec("INSERT INTO stock_movements (part_id,type,qty,stock_before,stock_after,reference,notes,created_by) VALUES (?,?,?,?,?,?,?,?)",
		partID, mtype, qty, before, after, reference, notes, user)
	return before, after, err
}

// alertIfStockDropped broadcasts a stock alert when a part crosses into
// the low or no_stock bucket.
func alertIfStockDropped(partID int64, before, after, minStock int) {
	was := catalog.StockStatus(before, minStock)
	now := catalog.StockStatus(after, minStock)
	if now.Bucket != was.Bucket && (now.Bucket == catalog.Low || now.Bucket == catalog.NoStock) {
		wsHub.BroadcastStockAlert(partID, string(now.Bucket))
	}
}

func handleInventoryTransact(w http.ResponseWriter, r *http.Request) {
	var m StockMovement
	if err := decodeBody(r, &m); err != nil { jsonErr(w, "invalid body", 400); return }

	ve := &ValidationErrors{}
	requireField(ve, "type", m.Type)
	validateEnum(ve, "type", m.Type, validMovementTypes)
	if m.PartID <= 0 {
		ve.Add("part_id", "is required")
	}
	switch m.Type {
	case "adjustment", "inventory_count":
		validateNonNegativeInt(ve, "qty", m.Qty)
	default:
		validatePositiveInt(ve, "qty", m.Qty)
	}
	if ve.HasErrors() { jsonErr(w, ve.Error(), 400); return }

	var minStock int
	if err := db.QueryRow("SELECT min_stock FROM parts WHERE id=? AND deleted=0", m.PartID).Scan(&minStock); err != nil {
		jsonErr(w, "part not found", 404)
		return
	}

	tx, err := db.Begin()
	if err != nil { jsonErr(w, err.Error(), 500); return }

	user := getUsername(r)
	before, after, err := applyMovementTx(tx, m.PartID, m.Type, m.Qty, m.Reference, m.Notes, user)
	if err != nil {
		tx.Rollback()
		switch {
		case errors.Is(err, errPartNotFound):
			jsonErr(w, "part not found", 404)
		case errors.Is(err, errInsufficientStock):
			jsonErr(w, err.Error(), 400)
		default:
			jsonErr(w, err.Error(), 500)
		}
		return
	}
	if err := tx.Commit(); err != nil { jsonErr(w, err.Error(), 500); return }

	m.StockBefore = before
	m.StockAfter = after
	m.CreatedBy = user

	partRef := strconv.FormatInt(m.PartID, 10)
	logAudit(db, user, AuditActionUpdate, "inventory", partRef, "Stock "+m.Type+" for part "+partRef)
	broadcast("part", "updated", m.PartID)
	alertIfStockDropped(m.PartID, before, after, minStock)

	jsonResp(w, m)
}

func handleListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := `SELECT id,part_id,type,qty,stock_before,stock_after,COALESCE(reference,''),COALESCE(notes,''),COALESCE(created_by,''),created_at
		FROM stock_movements WHERE 1=1`
	var args []interface{}
	if v := q.Get("part_id"); v != "" {
		query += " AND part_id=?"
		args = append(args, v)
	}
	if v := q.Get("type"); v != "" {
		query += " AND type=?"
		args = append(args, v)
	}
	if v := q.Get("reference"); v != "" {
		query += " AND reference LIKE ?"
		args = append(args, "%"+v+"%")
	}
	if v := q.Get("from"); v != "" {
		query += " AND created_at >= ?"
		args = append(args, v)
	}
	if v := q.Get("to"); v != "" {
		query += " AND created_at <= ?"
		args = append(args, v+" 23:59:59")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT 500"

	rows, err := db.Query(query, args...)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	defer rows.Close()
	var items []StockMovement
	for rows.Next() {
		var m StockMovement
		rows.Scan(&m.ID, &m.PartID, &m.Type, &m.Qty, &m.StockBefore, &m.StockAfter, &m.Reference, &m.Notes, &m.CreatedBy, &m.CreatedAt)
		items = append(items, m)
	}
	if items == nil { items = []StockMovement{} }
	jsonResp(w, items)
}

// handleLowStock lists active parts at or below their minimum,
// including parts with zero stock.
func handleLowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT " + partCols + " FROM parts WHERE deleted=0 AND active=1 AND (stock=0 OR stock<=min_stock) ORDER BY stock, name")
	if err != nil { jsonErr(w, err.Error(), 500); return }
	defer rows.Close()
	var items []Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil { jsonErr(w, err.Error(), 500); return }
		items = append(items, p)
	}
	if items == nil { items = []Part{} }
	jsonResp(w, items)
}
