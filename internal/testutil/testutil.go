// Package testutil provides shared fixtures for handler tests.
package testutil

import (
	"database/sql"
	"testing"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// SetupTestDB creates an in-memory SQLite database with the full
// motoshop schema and a seeded admin user.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}

	// Every connection to :memory: is a distinct database
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	createTables(t, testDB)
	seedAdminUser(t, testDB)

	return testDB
}

func createTables(t *testing.T, db *sql.DB) {
	t.Helper()
	tables := []struct {
		name string
		ddl  string
	}{
		{"users", `CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			display_name TEXT,
			role TEXT DEFAULT 'user',
			active INTEGER DEFAULT 1,
			last_login DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`},
		{"sessions", `CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`},
		{"services", `CREATE TABLE IF NOT EXISTS services (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			description TEXT DEFAULT '',
			category TEXT DEFAULT 'other',
			price REAL NOT NULL DEFAULT 0 CHECK(price >= 0),
			duration_min INTEGER DEFAULT 0 CHECK(duration_min >= 0),
			active INTEGER DEFAULT 1,
			deleted INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`},
		{"parts", `CREATE TABLE IF NOT EXISTS parts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			description TEXT DEFAULT '',
			category TEXT DEFAULT 'other',
			price REAL NOT NULL DEFAULT 0 CHECK(price >= 0),
			stock INTEGER NOT NULL DEFAULT 0 CHECK(stock >= 0),
			min_stock INTEGER NOT NULL DEFAULT 0 CHECK(min_stock >= 0),
			active INTEGER DEFAULT 1,
			deleted INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`},
		{"stock_movements", `CREATE TABLE IF NOT EXISTS stock_movements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			part_id INTEGER NOT NULL,
			type TEXT NOT NULL CHECK(type IN ('entry','exit','adjustment','return','transfer','shrinkage','inventory_count')),
			qty INTEGER NOT NULL,
			stock_before INTEGER NOT NULL DEFAULT 0,
			stock_after INTEGER NOT NULL DEFAULT 0,
			reference TEXT DEFAULT '',
			notes TEXT DEFAULT '',
			created_by TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (part_id) REFERENCES parts(id) ON DELETE RESTRICT
		)`},
		{"orders", `CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer TEXT NOT NULL,
			motorcycle TEXT DEFAULT '',
			plate TEXT DEFAULT '',
			status TEXT DEFAULT 'pending' CHECK(status IN ('pending','in_progress','completed','delivered','cancelled')),
			general_comment TEXT DEFAULT '',
			total REAL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			started_at DATETIME
		)`},
		{"order_services", `CREATE TABLE IF NOT EXISTS order_services (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			service_id INTEGER NOT NULL,
			name TEXT DEFAULT '',
			qty INTEGER NOT NULL CHECK(qty > 0),
			unit_price REAL NOT NULL CHECK(unit_price >= 0),
			comment TEXT DEFAULT '',
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY (service_id) REFERENCES services(id) ON DELETE RESTRICT
		)`},
		{"order_parts", `CREATE TABLE IF NOT EXISTS order_parts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			part_id INTEGER NOT NULL,
			name TEXT DEFAULT '',
			qty INTEGER NOT NULL CHECK(qty > 0),
			unit_price REAL NOT NULL CHECK(unit_price >= 0),
			comment TEXT DEFAULT '',
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY (part_id) REFERENCES parts(id) ON DELETE RESTRICT
		)`},
		{"audit_log", `CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT DEFAULT 'system',
			action TEXT NOT NULL,
			module TEXT NOT NULL,
			record_id TEXT NOT NULL,
			summary TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`},
	}
	for _, tbl := range tables {
		if _, err := db.Exec(tbl.ddl); err != nil {
			t.Fatalf("Failed to create %s table: %v", tbl.name, err)
		}
	}
}

func seedAdminUser(t *testing.T, db *sql.DB) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	_, err = db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
		"admin", string(hash), "Administrator", "admin")
	if err != nil {
		t.Fatalf("Failed to seed admin user: %v", err)
	}
}

// SeedSession inserts a session for the given user and returns its token.
func SeedSession(t *testing.T, db *sql.DB, userID int) string {
	t.Helper()
	token := "test-session-token"
	_, err := db.Exec("INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, datetime('now', '+1 day'))",
		token, userID)
	if err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}
	return token
}
