package main

import (
	"database/sql"
	"net/http"
	"strconv"

	"motoshop/internal/audit"
)

// Audit action constant aliases.
const (
	AuditActionCreate = audit.ActionCreate
	AuditActionUpdate = audit.ActionUpdate
	AuditActionDelete = audit.ActionDelete
	AuditActionExport = audit.ActionExport
	AuditActionLogin  = audit.ActionLogin
	AuditActionLogout = audit.ActionLogout
)

// Wrapper functions delegating to internal/audit, injecting the global
// db and wsHub.
func logAudit(db *sql.DB, username, action, module, recordID, summary string) {
	audit.Log(db, wsHub, username, action, module, recordID, summary)
}

func getUsername(r *http.Request) string {
	return audit.Username(db, r)
}

func handleAuditLog(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := audit.Recent(db, module, limit)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, entries)
}
