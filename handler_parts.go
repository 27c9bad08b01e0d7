package main

import (
	"net/http"
	"strconv"

	"motoshop/internal/catalog"
	"motoshop/internal/filter"
)

const partCols = "id,code,name,COALESCE(description,''),category,price,stock,min_stock,active,created_at,updated_at"

func scanPart(rows interface{ Scan(...interface{}) error }) (Part, error) {
	var p Part
	var active int
	err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.MinStock, &active, &p.CreatedAt, &p.UpdatedAt)
	p.Active = active == 1
	p.StockBucket = string(catalog.StockStatus(p.Stock, p.MinStock).Bucket)
	return p, err
}

func handleListParts(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT " + partCols + " FROM parts WHERE deleted=0 ORDER BY name")
	if err != nil { jsonErr(w, err.Error(), 500); return }
	defer rows.Close()
	var items []Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil { jsonErr(w, err.Error(), 500); return }
		items = append(items, p)
	}
	jsonResp(w, filter.Parts(items, listCriteria(r)))
}

func handleGetPart(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow("SELECT "+partCols+" FROM parts WHERE id=? AND deleted=0", id)
	p, err := scanPart(row)
	if err != nil { jsonErr(w, "not found", 404); return }
	jsonResp(w, p)
}

func validatePart(p *Part) *ValidationErrors {
	ve := &ValidationErrors{}
	requireField(ve, "code", p.Code)
	validateCode(ve, "code", p.Code)
	requireField(ve, "name", p.Name)
	validateEnum(ve, "category", p.Category, validCategories)
	validateNonNegativeFloat(ve, "price", p.Price)
	validateNonNegativeInt(ve, "stock", p.Stock)
	validateNonNegativeInt(ve, "min_stock", p.MinStock)
	return ve
}

func partCodeTaken(code string, excludeID int64) bool {
	var count int
	db.QueryRow("SELECT COUNT(*) FROM parts WHERE code=? AND id<>?", code, excludeID).Scan(&count)
	return count > 0
}

func handleCreatePart(w http.ResponseWriter, r *http.Request) {
	var p Part
	if err := decodeBody(r, &p); err != nil { jsonErr(w, "invalid body", 400); return }
	if p.Category == "" { p.Category = "other" }
	if ve := validatePart(&p); ve.HasErrors() { jsonErr(w, ve.Error(), 400); return }
	if partCodeTaken(p.Code, 0) { jsonErr(w, "code already in use: "+p.Code, 409); return }

	res, err := db.Exec("INSERT INTO parts (code,name,description,category,price,stock,min_stock,active) VALUES (?,?,?,?,?,?,?,1)",
		p.Code, p.Name, p.Description, p.Category, p.Price, p.Stock, p.MinStock)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	id, _ := res.LastInsertId()

	// Initial stock enters the history as an entry movement
	if p.Stock > 0 {
		db.Exec("INSERT INTO stock_movements (part_id,type,qty,stock_before,stock_after,reference,notes,created_by) VALUES (?,?,?,?,?,?,?,?)",
			id, "entry", p.Stock, 0, p.Stock, "INITIAL", "Initial stock", getUsername(r))
	}

	logAudit(db, getUsername(r), AuditActionCreate, "parts", strconv.FormatInt(id, 10), "Created part "+p.Name)
	broadcast("part", "created", id)
	handleGetPart(w, r, strconv.FormatInt(id, 10))
}

// handleUpdatePart edits catalog fields only. Stock changes go through
// inventory movements so the history stays complete.
func handleUpdatePart(w http.ResponseWriter, r *http.Request, id string) {
	var p Part
	if err := decodeBody(r, &p); err != nil { jsonErr(w, "invalid body", 400); return }
	if ve := validatePart(&p); ve.HasErrors() { jsonErr(w, ve.Error(), 400); return }
	numID, _ := strconv.ParseInt(id, 10, 64)
	if partCodeTaken(p.Code, numID) { jsonErr(w, "code already in use: "+p.Code, 409); return }

	res, err := db.Exec(`UPDATE parts SET code=?,name=?,description=?,category=?,price=?,min_stock=?,updated_at=CURRENT_TIMESTAMP
		WHERE id=? AND deleted=0`,
		p.Code, p.Name, p.Description, p.Category, p.Price, p.MinStock, id)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	if n, _ := res.RowsAffected(); n == 0 { jsonErr(w, "not found", 404); return }

	logAudit(db, getUsername(r), AuditActionUpdate, "parts", id, "Updated part "+p.Name)
	broadcast("part", "updated", id)
	handleGetPart(w, r, id)
}

func handleTogglePart(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec("UPDATE parts SET active=1-active,updated_at=CURRENT_TIMESTAMP WHERE id=? AND deleted=0", id)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	if n, _ := res.RowsAffected(); n == 0 { jsonErr(w, "not found", 404); return }

	logAudit(db, getUsername(r), AuditActionUpdate, "parts", id, "Toggled part "+id)
	broadcast("part", "updated", id)
	handleGetPart(w, r, id)
}

func handleDeletePart(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec("UPDATE parts SET deleted=1,active=0,updated_at=CURRENT_TIMESTAMP WHERE id=? AND deleted=0", id)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	if n, _ := res.RowsAffected(); n == 0 { jsonErr(w, "not found", 404); return }

	logAudit(db, getUsername(r), AuditActionDelete, "parts", id, "Deleted part "+id)
	broadcast("part", "deleted", id)
	jsonResp(w, map[string]string{"deleted": id})
}

func handlePartCodeCheck(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" { jsonErr(w, "code is required", 400); return }
	var exclude int64
	if v := r.URL.Query().Get("exclude_id"); v != "" {
		exclude, _ = strconv.ParseInt(v, 10, 64)
	}
	jsonResp(w, map[string]interface{}{"code": code, "available": !partCodeTaken(code, exclude)})
}

func handlePartHistory(w http.ResponseWriter, r *http.Request, id string) {
	rows, err := db.Query(`SELECT id,part_id,type,qty,stock_before,stock_after,COALESCE(reference,''),COALESCE(notes,''),COALESCE(created_by,''),created_at
		FROM stock_movements WHERE part_id=? ORDER BY created_at DESC, id DESC`, id)
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
