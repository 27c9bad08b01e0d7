package main

import (
	"net/http"
	"strconv"

	"motoshop/internal/catalog"
)

const orderCols = "id,customer,COALESCE(motorcycle,''),COALESCE(plate,''),status,COALESCE(general_comment,''),total,created_at,updated_at,COALESCE(started_at,'')"

func scanOrder(rows interface{ Scan(...interface{}) error }) (Order, error) {
	var o Order
	err := rows.Scan(&o.ID, &o.Customer, &o.Motorcycle, &o.Plate, &o.Status, &o.GeneralComment, &o.Total, &o.CreatedAt, &o.UpdatedAt, &o.StartedAt)
	return o, err
}

func handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := "SELECT " + orderCols + " FROM orders WHERE 1=1"
	var args []interface{}
	if v := q.Get("status"); v != "" {
		query += " AND status=?"
		args = append(args, v)
	}
	if v := q.Get("search"); v != "" {
		query += " AND (customer LIKE ? OR plate LIKE ? OR motorcycle LIKE ? OR id LIKE ?)"
		s := "%" + v + "%"
		args = append(args, s, s, s, s)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := db.Query(query, args...)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	defer rows.Close()
	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil { jsonErr(w, err.Error(), 500); return }
		items = append(items, o)
	}
	if items == nil { items = []Order{} }
	jsonResp(w, items)
}

func orderLines(table, fkCol, orderID string) ([]OrderLine, error) {
	rows, err := db.Query("SELECT id,order_id,"+fkCol+",COALESCE(name,''),qty,unit_price,COALESCE(comment,'') FROM "+table+" WHERE order_id=? ORDER BY id", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []OrderLine{}
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Name, &l.Qty, &l.UnitPrice, &l.Comment); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func handleGetOrder(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow("SELECT "+orderCols+" FROM orders WHERE id=?", id)
	o, err := scanOrder(row)
	if err != nil { jsonErr(w, "not found", 404); return }

	if o.Services, err = orderLines("order_services", "service_id", id); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if o.Parts, err = orderLines("order_parts", "part_id", id); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, o)
}

func handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var o Order
	if err := decodeBody(r, &o); err != nil { jsonErr(w, "invalid body", 400); return }

	ve := &ValidationErrors{}
	requireField(ve, "customer", o.Customer)
	if ve.HasErrors() { jsonErr(w, ve.Error(), 400); return }

	o.ID = nextID("ORD", "orders", 4)
	_, err := db.Exec("INSERT INTO orders (id,customer,motorcycle,plate,status,general_comment) VALUES (?,?,?,?,'pending',?)",
		o.ID, o.Customer, o.Motorcycle, o.Plate, o.GeneralComment)
	if err != nil { jsonErr(w, err.Error(), 500); return }

	logAudit(db, getUsername(r), AuditActionCreate, "orders", o.ID, "Created order for "+o.Customer)
	broadcast("order", "created", o.ID)
	handleGetOrder(w, r, o.ID)
}

func handleUpdateOrder(w http.ResponseWriter, r *http.Request, id string) {
	var o Order
	if err := decodeBody(r, &o); err != nil { jsonErr(w, "invalid body", 400); return }

	ve := &ValidationErrors{}
	requireField(ve, "customer", o.Customer)
	if ve.HasErrors() { jsonErr(w, ve.Error(), 400); return }

	res, err := db.Exec("UPDATE orders SET customer=?,motorcycle=?,plate=?,general_comment=?,updated_at=CURRENT_TIMESTAMP WHERE id=?",
		o.Customer, o.Motorcycle, o.Plate, o.GeneralComment, id)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	if n, _ := res.RowsAffected(); n == 0 { jsonErr(w, "not found", 404); return }

	logAudit(db, getUsername(r), AuditActionUpdate, "orders", id, "Updated order "+id)
	broadcast("order", "updated", id)
	handleGetOrder(w, r, id)
}

func handleOrderStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil { jsonErr(w, "invalid body", 400); return }

	ve := &ValidationErrors{}
	requireField(ve, "status", req.Status)
	validateEnum(ve, "status", req.Status, validOrderStatuses)
	if ve.HasErrors() { jsonErr(w, ve.Error(), 400); return }

	var current string
	if err := db.QueryRow("SELECT status FROM orders WHERE id=?", id).Scan(&current); err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	// Terminal states stay terminal
	if current == "delivered" || current == "cancelled" {
		jsonErr(w, "order is "+current, 409)
		return
	}

	if req.Status == "in_progress" && current == "pending" {
		db.Exec("UPDATE orders SET status=?,started_at=CURRENT_TIMESTAMP,updated_at=CURRENT_TIMESTAMP WHERE id=?", req.Status, id)
	} else {
		db.Exec("UPDATE orders SET status=?,updated_at=CURRENT_TIMESTAMP WHERE id=?", req.Status, id)
	}

	logAudit(db, getUsername(r), AuditActionUpdate, "orders", id, "Status "+current+" -> "+req.Status)
	broadcast("order", "updated", id)
	handleGetOrder(w, r, id)
}

type fulfillmentLine struct {
	ItemID    int64   `json:"item_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Qty       int     `json:"qty"`
	Comment   string  `json:"comment"`
}

type fulfillmentRequest struct {
	Services       []fulfillmentLine `json:"services"`
	Parts          []fulfillmentLine `json:"parts"`
	GeneralComment string            `json:"general_comment"`
}

// handleOrderFulfillment attaches the selected services and parts to a
// pending order and starts work on it. Part lines consume stock through
// exit movements referencing the order; the whole operation is atomic.
func handleOrderFulfillment(w http.ResponseWriter, r *http.Request, id string) {
	var req fulfillmentRequest
	if err := decodeBody(r, &req); err != nil { jsonErr(w, "invalid body", 400); return }

	if len(req.Services) == 0 {
		jsonErr(w, "must select at least one service", 400)
		return
	}
	for _, l := range req.Services {
		if l.ItemID <= 0 || l.Qty <= 0 {
			jsonErr(w, "invalid service line", 400)
			return
		}
	}
	for _, l := range req.Parts {
		if l.ItemID <= 0 || l.Qty <= 0 {
			jsonErr(w, "invalid part line", 400)
			return
		}
	}

	var status string
	if err := db.QueryRow("SELECT status FROM orders WHERE id=?", id).Scan(&status); err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if status != "pending" {
		jsonErr(w, "order is "+status+", expected pending", 409)
		return
	}

	user := getUsername(r)
	tx, err := db.Begin()
	if err != nil { jsonErr(w, err.Error(), 500); return }

	total := 0.0
	for _, l := range req.Services {
		var name string
		var price float64
		if err := tx.QueryRow("SELECT name,price FROM services WHERE id=? AND deleted=0", l.ItemID).Scan(&name, &price); err != nil {
			tx.Rollback()
			jsonErr(w, "unknown service: "+strconv.FormatInt(l.ItemID, 10), 400)
			return
		}
		if l.UnitPrice > 0 {
			price = l.UnitPrice
		}
		if l.Name == "" {
			l.Name = name
		}
		if _, err := tx.Exec("INSERT INTO order_services (order_id,service_id,name,qty,unit_price,comment) VALUES (?,?,?,?,?,?)",
			id, l.ItemID, l.Name, l.Qty, price, l.Comment); err != nil {
			tx.Rollback()
			jsonErr(w, err.Error(), 500)
			return
		}
		total += price * float64(l.Qty)
	}

	type stockChange struct {
		partID        int64
		before, after int
		minStock      int
	}
	var changes []stockChange

	for _, l := range req.Parts {
		var name string
		var price float64
		var minStock int
		if err := tx.QueryRow("SELECT name,price,min_stock FROM parts WHERE id=? AND deleted=0", l.ItemID).Scan(&name, &price, &minStock); err != nil {
			tx.Rollback()
			jsonErr(w, "unknown part: "+strconv.FormatInt(l.ItemID, 10), 400)
			return
		}
		if l.UnitPrice > 0 {
			price = l.UnitPrice
		}
		if l.Name == "" {
			l.Name = name
		}
		before, after, err := applyMovementTx(tx, l.ItemID, "exit", l.Qty, id, "Order fulfillment", user)
		if err != nil {
			tx.Rollback()
			if err == errInsufficientStock {
				jsonErr(w, "insufficient stock for "+name, 400)
				return
			}
			jsonErr(w, err.Error(), 500)
			return
		}
		if _, err := tx.Exec("INSERT INTO order_parts (order_id,part_id,name,qty,unit_price,comment) VALUES (?,?,?,?,?,?)",
			id, l.ItemID, l.Name, l.Qty, price, l.Comment); err != nil {
			tx.Rollback()
			jsonErr(w, err.Error(), 500)
			return
		}
		total += price * float64(l.Qty)
		changes = append(changes, stockChange{l.ItemID, before, after, minStock})
	}

	if _, err := tx.Exec(`UPDATE orders SET status='in_progress',general_comment=?,total=?,started_at=CURRENT_TIMESTAMP,updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, req.GeneralComment, total, id); err != nil {
		tx.Rollback()
		jsonErr(w, err.Error(), 500)
		return
	}
	if err := tx.Commit(); err != nil { jsonErr(w, err.Error(), 500); return }

	logAudit(db, user, AuditActionUpdate, "orders", id, "Fulfilled order with "+
		strconv.Itoa(len(req.Services))+" services, "+strconv.Itoa(len(req.Parts))+" parts ("+catalog.FormatPrice(total)+")")
	broadcast("order", "updated", id)
	for _, c := range changes {
		broadcast("part", "updated", c.partID)
		alertIfStockDropped(c.partID, c.before, c.after, c.minStock)
	}

	handleGetOrder(w, r, id)
}
