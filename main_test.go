package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"motoshop/internal/testutil"
)

// useTestDB swaps the global db for an in-memory one for the duration
// of the test.
func useTestDB(t *testing.T) {
	t.Helper()
	oldDB := db
	db = testutil.SetupTestDB(t)
	t.Cleanup(func() { db.Close(); db = oldDB })
}

func insertTestService(t *testing.T, code, name, category string, price float64, durationMin int) int64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO services (code,name,description,category,price,duration_min) VALUES (?,?,?,?,?,?)",
		code, name, "", category, price, durationMin)
	if err != nil {
		t.Fatalf("insert service: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func insertTestPart(t *testing.T, code, name, category string, price float64, stock, minStock int) int64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO parts (code,name,description,category,price,stock,min_stock) VALUES (?,?,?,?,?,?,?)",
		code, name, "", category, price, stock, minStock)
	if err != nil {
		t.Fatalf("insert part: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func jsonReq(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	return httptest.NewRequest(method, target, &buf)
}

// decodeData unmarshals the "data" envelope of a response into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("decode data: %v (body: %s)", err, rec.Body.String())
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
