package main

import (
	"net/http"
	"strconv"

	"motoshop/internal/filter"
)

const serviceCols = "id,code,name,COALESCE(description,''),category,price,duration_min,active,created_at,updated_at"

// listCriteria builds filter criteria from list-page query params.
// Handlers fetch the full catalog and filter in memory.
func listCriteria(r *http.Request) filter.Criteria {
	q := r.URL.Query()
	c := filter.Criteria{
		Term:        q.Get("search"),
		Category:    q.Get("category"),
		StockBucket: q.Get("stock"),
	}
	if v := q.Get("active"); v != "" {
		b := v == "true" || v == "1"
		c.Active = &b
	}
	if v := q.Get("price_min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil { c.PriceMin = &f }
	}
	if v := q.Get("price_max"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil { c.PriceMax = &f }
	}
	if v := q.Get("duration_min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil { c.DurationMin = &n }
	}
	if v := q.Get("duration_max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil { c.DurationMax = &n }
	}
	return c
}

func scanService(rows interface{ Scan(...interface{}) error }) (Service, error) {
	var s Service
	var active int
	err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Description, &s.Category, &s.Price, &s.DurationMin, &active, &s.CreatedAt, &s.UpdatedAt)
	s.Active = active == 1
	return s, err
}

func handleListServices(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT " + serviceCols + " FROM services WHERE deleted=0 ORDER BY name")
	if err != nil { jsonErr(w, err.Error(), 500); return }
	defer rows.Close()
	var items []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil { jsonErr(w, err.Error(), 500); return }
		items = append(items, s)
	}
	jsonResp(w, filter.Services(items, listCriteria(r)))
}

func handleGetService(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow("SELECT "+serviceCols+" FROM services WHERE id=? AND deleted=0", id)
	s, err := scanService(row)
	if err != nil { jsonErr(w, "not found", 404); return }
	jsonResp(w, s)
}

func validateService(s *Service) *ValidationErrors {
	ve := &ValidationErrors{}
	requireField(ve, "code", s.Code)
	validateCode(ve, "code", s.Code)
	requireField(ve, "name", s.Name)
	validateEnum(ve, "category", s.Category, validCategories)
	validateNonNegativeFloat(ve, "price", s.Price)
	validateNonNegativeInt(ve, "duration_min", s.DurationMin)
	return ve
}

func serviceCodeTaken(code string, excludeID int64) bool {
	var count int
	db.QueryRow("SELECT COUNT(*) FROM services WHERE code=? AND id<>?", code, excludeID).Scan(&count)
	return count > 0
}

func handleCreateService(w http.ResponseWriter, r *http.Request) {
	var s Service
	if err := decodeBody(r, &s); err != nil { jsonErr(w, "invalid body", 400); return }
	if s.Category == "" { s.Category = "other" }
	if ve := validateService(&s); ve.HasErrors() { jsonErr(w, ve.Error(), 400); return }
	if serviceCodeTaken(s.Code, 0) { jsonErr(w, "code already in use: "+s.Code, 409); return }

	res, err := db.Exec("INSERT INTO services (code,name,description,category,price,duration_min,active) VALUES (?,?,?,?,?,?,1)",
		s.Code, s.Name, s.Description, s.Category, s.Price, s.DurationMin)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	id, _ := res.LastInsertId()

	logAudit(db, getUsername(r), AuditActionCreate, "services", strconv.FormatInt(id, 10), "Created service "+s.Name)
	broadcast("service", "created", id)
	handleGetService(w, r, strconv.FormatInt(id, 10))
}

func handleUpdateService(w http.ResponseWriter, r *http.Request, id string) {
	var s Service
	if err := decodeBody(r, &s); err != nil { jsonErr(w, "invalid body", 400); return }
	if ve := validateService(&s); ve.HasErrors() { jsonErr(w, ve.Error(), 400); return }
	numID, _ := strconv.ParseInt(id, 10, 64)
	if serviceCodeTaken(s.Code, numID) { jsonErr(w, "code already in use: "+s.Code, 409); return }

	res, err := db.Exec(`UPDATE services SET code=?,name=?,description=?,category=?,price=?,duration_min=?,updated_at=CURRENT_TIMESTAMP
		WHERE id=? AND deleted=0`,
		s.Code, s.Name, s.Description, s.Category, s.Price, s.DurationMin, id)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	if n, _ := res.RowsAffected(); n == 0 { jsonErr(w, "not found", 404); return }

	logAudit(db, getUsername(r), AuditActionUpdate, "services", id, "Updated service "+s.Name)
	broadcast("service", "updated", id)
	handleGetService(w, r, id)
}

func handleToggleService(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec("UPDATE services SET active=1-active,updated_at=CURRENT_TIMESTAMP WHERE id=? AND deleted=0", id)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	if n, _ := res.RowsAffected(); n == 0 { jsonErr(w, "not found", 404); return }

	logAudit(db, getUsername(r), AuditActionUpdate, "services", id, "Toggled service "+id)
	broadcast("service", "updated", id)
	handleGetService(w, r, id)
}

func handleDeleteService(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec("UPDATE services SET deleted=1,active=0,updated_at=CURRENT_TIMESTAMP WHERE id=? AND deleted=0", id)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	if n, _ := res.RowsAffected(); n == 0 { jsonErr(w, "not found", 404); return }

	logAudit(db, getUsername(r), AuditActionDelete, "services", id, "Deleted service "+id)
	broadcast("service", "deleted", id)
	jsonResp(w, map[string]string{"deleted": id})
}

func handleServiceCodeCheck(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" { jsonErr(w, "code is required", 400); return }
	var exclude int64
	if v := r.URL.Query().Get("exclude_id"); v != "" {
		exclude, _ = strconv.ParseInt(v, 10, 64)
	}
	jsonResp(w, map[string]interface{}{"code": code, "available": !serviceCodeTaken(code, exclude)})
}
