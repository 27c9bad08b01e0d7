package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"motoshop/internal/testutil"
)

func contextWithRole(r *http.Request, role string) context.Context {
	return context.WithValue(r.Context(), ctxRole, role)
}

func TestHandleLogin(t *testing.T) {
	useTestDB(t)

	rec := httptest.NewRecorder()
	handleLogin(rec, jsonReq(t, "POST", "/auth/login", LoginRequest{Username: "admin", Password: "changeme"}))
	wantStatus(t, rec, 200)

	var resp struct {
		User UserResponse `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Username != "admin" || resp.User.Role != "admin" {
		t.Errorf("unexpected user: %+v", resp.User)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "motoshop_session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("session cookie not set")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie not HttpOnly")
	}
}

func TestHandleLoginWrongPassword(t *testing.T) {
	useTestDB(t)

	rec := httptest.NewRecorder()
	handleLogin(rec, jsonReq(t, "POST", "/auth/login", LoginRequest{Username: "admin", Password: "wrong"}))
	wantStatus(t, rec, 401)
}

func TestHandleMeWithSession(t *testing.T) {
	useTestDB(t)
	token := testutil.SeedSession(t, db, 1)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "motoshop_session", Value: token})
	rec := httptest.NewRecorder()
	handleMe(rec, req)
	wantStatus(t, rec, 200)

	rec = httptest.NewRecorder()
	handleMe(rec, httptest.NewRequest("GET", "/auth/me", nil))
	wantStatus(t, rec, 401)
}

func TestHandleLogoutDeletesSession(t *testing.T) {
	useTestDB(t)
	token := testutil.SeedSession(t, db, 1)

	req := httptest.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "motoshop_session", Value: token})
	rec := httptest.NewRecorder()
	handleLogout(rec, req)
	wantStatus(t, rec, 200)

	var count int
	db.QueryRow("SELECT COUNT(*) FROM sessions WHERE token=?", token).Scan(&count)
	if count != 0 {
		t.Error("session not deleted on logout")
	}
}

func TestRequireAuthRejectsAnonymousAPI(t *testing.T) {
	useTestDB(t)

	handler := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/services", nil))
	wantStatus(t, rec, 401)

	token := testutil.SeedSession(t, db, 1)
	req := httptest.NewRequest("GET", "/api/v1/services", nil)
	req.AddCookie(&http.Cookie{Name: "motoshop_session", Value: token})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	wantStatus(t, rec, 200)
}

func TestRBACReadonlyBlocksWrites(t *testing.T) {
	useTestDB(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})
	handler := requireRBAC(inner)

	readonlyCtx := func(r *http.Request) *http.Request {
		return r.WithContext(contextWithRole(r, "readonly"))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, readonlyCtx(httptest.NewRequest("POST", "/api/v1/services", nil)))
	wantStatus(t, rec, 403)

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["code"] != "FORBIDDEN" {
		t.Errorf("code = %q, want FORBIDDEN", resp["code"])
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, readonlyCtx(httptest.NewRequest("GET", "/api/v1/services", nil)))
	wantStatus(t, rec, 200)
}
