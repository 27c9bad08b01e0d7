package main

import (
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestCreatePartRecordsInitialStock(t *testing.T) {
	useTestDB(t)

	rec := httptest.NewRecorder()
	handleCreatePart(rec, jsonReq(t, "POST", "/api/v1/parts", Part{
		Code: "REP-100", Name: "Oil filter", Category: "engine", Price: 18000, Stock: 12, MinStock: 4,
	}))
	wantStatus(t, rec, 200)

	var got Part
	decodeData(t, rec, &got)
	if got.Stock != 12 || got.StockBucket != "normal" {
		t.Errorf("unexpected part: %+v", got)
	}

	var mtype string
	var before, after int
	err := db.QueryRow("SELECT type,stock_before,stock_after FROM stock_movements WHERE part_id=?", got.ID).
		Scan(&mtype, &before, &after)
	if err != nil {
		t.Fatalf("initial movement missing: %v", err)
	}
	if mtype != "entry" || before != 0 || after != 12 {
		t.Errorf("initial movement = %s %d->%d, want entry 0->12", mtype, before, after)
	}
}

func TestCreatePartZeroStockNoMovement(t *testing.T) {
	useTestDB(t)

	rec := httptest.NewRecorder()
	handleCreatePart(rec, jsonReq(t, "POST", "/api/v1/parts", Part{
		Code: "REP-100", Name: "Spark plug", Category: "electrical", Price: 22000, Stock: 0, MinStock: 10,
	}))
	wantStatus(t, rec, 200)

	var got Part
	decodeData(t, rec, &got)
	if got.StockBucket != "no_stock" {
		t.Errorf("bucket = %q, want no_stock", got.StockBucket)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM stock_movements WHERE part_id=?", got.ID).Scan(&count)
	if count != 0 {
		t.Errorf("zero-stock part recorded %d movements", count)
	}
}

func TestUpdatePartDoesNotTouchStock(t *testing.T) {
	useTestDB(t)
	id := insertTestPart(t, "REP-100", "Oil filter", "engine", 18000, 7, 4)
	idStr := strconv.FormatInt(id, 10)

	rec := httptest.NewRecorder()
	handleUpdatePart(rec, jsonReq(t, "PUT", "/api/v1/parts/"+idStr, Part{
		Code: "REP-100", Name: "Oil filter premium", Category: "engine", Price: 21000, Stock: 99, MinStock: 4,
	}), idStr)
	wantStatus(t, rec, 200)

	var got Part
	decodeData(t, rec, &got)
	if got.Name != "Oil filter premium" || got.Price != 21000 {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Stock != 7 {
		t.Errorf("stock = %d after catalog edit, want 7", got.Stock)
	}
}

func TestListPartsStockFilter(t *testing.T) {
	useTestDB(t)
	insertTestPart(t, "REP-100", "Oil filter", "engine", 18000, 24, 8)
	insertTestPart(t, "REP-101", "Brake pads", "brakes", 35000, 3, 5)
	insertTestPart(t, "REP-102", "Spark plug", "electrical", 22000, 0, 10)

	rec := httptest.NewRecorder()
	handleListParts(rec, httptest.NewRequest("GET", "/api/v1/parts?stock=low", nil))
	var got []Part
	decodeData(t, rec, &got)
	if len(got) != 1 || got[0].Code != "REP-101" {
		t.Errorf("low filter: got %+v", got)
	}

	rec = httptest.NewRecorder()
	handleListParts(rec, httptest.NewRequest("GET", "/api/v1/parts?stock=no_stock", nil))
	decodeData(t, rec, &got)
	if len(got) != 1 || got[0].Code != "REP-102" {
		t.Errorf("no_stock filter: got %+v", got)
	}
}

func TestPartHistoryNewestFirst(t *testing.T) {
	useTestDB(t)
	id := insertTestPart(t, "REP-100", "Oil filter", "engine", 18000, 0, 4)
	idStr := strconv.FormatInt(id, 10)

	db.Exec("INSERT INTO stock_movements (part_id,type,qty,stock_before,stock_after,created_at) VALUES (?,?,?,?,?,?)",
		id, "entry", 10, 0, 10, "2026-01-01 10:00:00")
	db.Exec("INSERT INTO stock_movements (part_id,type,qty,stock_before,stock_after,created_at) VALUES (?,?,?,?,?,?)",
		id, "exit", 3, 10, 7, "2026-01-02 10:00:00")

	rec := httptest.NewRecorder()
	handlePartHistory(rec, httptest.NewRequest("GET", "/api/v1/parts/"+idStr+"/history", nil), idStr)
	var got []StockMovement
	decodeData(t, rec, &got)
	if len(got) != 2 {
		t.Fatalf("got %d movements, want 2", len(got))
	}
	if got[0].Type != "exit" || got[1].Type != "entry" {
		t.Errorf("history not newest-first: %+v", got)
	}
}
