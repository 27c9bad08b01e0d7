package main

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var db *sql.DB

func initDB(path string) error {
	// Close previous connection if any (prevents goroutine leaks in tests)
	if db != nil {
		db.Close()
	}
	var err error
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err = sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=1")
	if err != nil {
		return err
	}

	// SQLite handles 1 writer + multiple readers with WAL mode
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	// Some drivers don't parse connection string params correctly
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	return runMigrations()
}

func runMigrations() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS services (
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
		)`,
		`CREATE TABLE IF NOT EXISTS parts (
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
		)`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
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
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
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
		)`,
		`CREATE TABLE IF NOT EXISTS order_services (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			service_id INTEGER NOT NULL,
			name TEXT DEFAULT '',
			qty INTEGER NOT NULL CHECK(qty > 0),
			unit_price REAL NOT NULL CHECK(unit_price >= 0),
			comment TEXT DEFAULT '',
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY (service_id) REFERENCES services(id) ON DELETE RESTRICT
		)`,
		`CREATE TABLE IF NOT EXISTS order_parts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			part_id INTEGER NOT NULL,
			name TEXT DEFAULT '',
			qty INTEGER NOT NULL CHECK(qty > 0),
			unit_price REAL NOT NULL CHECK(unit_price >= 0),
			comment TEXT DEFAULT '',
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY (part_id) REFERENCES parts(id) ON DELETE RESTRICT
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			display_name TEXT,
			role TEXT DEFAULT 'user',
			active INTEGER DEFAULT 1,
			last_login DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT DEFAULT 'system',
			action TEXT NOT NULL,
			module TEXT NOT NULL,
			record_id TEXT NOT NULL,
			summary TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, t := range tables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("migration error: %w\nSQL: %s", err, t)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_services_category ON services(category)",
		"CREATE INDEX IF NOT EXISTS idx_services_active ON services(active)",
		"CREATE INDEX IF NOT EXISTS idx_parts_category ON parts(category)",
		"CREATE INDEX IF NOT EXISTS idx_parts_active ON parts(active)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_part_id ON stock_movements(part_id)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_type ON stock_movements(type)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_created_at ON stock_movements(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)",
		"CREATE INDEX IF NOT EXISTS idx_order_services_order_id ON order_services(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_parts_order_id ON order_parts(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_module ON audit_log(module)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at)",
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index creation: %w\nSQL: %s", err, idx)
		}
	}

	return nil
}

func seedDB() {
	// Always ensure admin user exists
	var userCount int
	db.QueryRow("SELECT COUNT(*) FROM users WHERE username = 'admin'").Scan(&userCount)
	if userCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash admin password: %v", err)
		} else {
			db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
				"admin", string(hash), "Administrator", "admin")
		}
	}

	// Seed mechanic and front-desk users
	for _, u := range []struct{ username, display, role string }{
		{"mechanic", "Mechanic", "user"},
		{"frontdesk", "Front Desk", "readonly"},
	} {
		var n int
		db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", u.username).Scan(&n)
		if n == 0 {
			hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
			if err == nil {
				db.Exec("INSERT INTO users (username, password_hash, display_name, role, active) VALUES (?, ?, ?, ?, 1)",
					u.username, string(hash), u.display, u.role)
			}
		}
	}

	// Check if catalog already seeded
	var count int
	db.QueryRow("SELECT COUNT(*) FROM services").Scan(&count)
	if count > 0 {
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	year := time.Now().Format("2006")

	// Services
	db.Exec(`INSERT INTO services (code,name,description,category,price,duration_min) VALUES (?,?,?,?,?,?)`,
		"SRV-001", "Oil and filter change", "Engine oil drain, new filter and oil", "maintenance", 45000, 30)
	db.Exec(`INSERT INTO services (code,name,description,category,price,duration_min) VALUES (?,?,?,?,?,?)`,
		"SRV-002", "Chain kit replacement", "Chain, front and rear sprockets", "transmission", 120000, 90)
	db.Exec(`INSERT INTO services (code,name,description,category,price,duration_min) VALUES (?,?,?,?,?,?)`,
		"SRV-003", "Brake pad replacement", "Front or rear brake pad swap and bleed", "brakes", 60000, 45)

	// Parts
	db.Exec(`INSERT INTO parts (code,name,description,category,price,stock,min_stock) VALUES (?,?,?,?,?,?,?)`,
		"REP-001", "Oil filter", "Spin-on oil filter, most 150-300cc models", "engine", 18000, 24, 8)
	db.Exec(`INSERT INTO parts (code,name,description,category,price,stock,min_stock) VALUES (?,?,?,?,?,?,?)`,
		"REP-002", "Front brake pads", "Sintered pads, twin-piston caliper", "brakes", 35000, 6, 5)
	db.Exec(`INSERT INTO parts (code,name,description,category,price,stock,min_stock) VALUES (?,?,?,?,?,?,?)`,
		"REP-003", "Spark plug", "Iridium, standard reach", "electrical", 22000, 0, 10)

	// Initial stock movements
	db.Exec(`INSERT INTO stock_movements (part_id,type,qty,stock_before,stock_after,reference,notes,created_by,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		1, "entry", 24, 0, 24, "SEED", "Initial stock", "system", now)
	db.Exec(`INSERT INTO stock_movements (part_id,type,qty,stock_before,stock_after,reference,notes,created_by,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		2, "entry", 6, 0, 6, "SEED", "Initial stock", "system", now)

	// Orders
	db.Exec(`INSERT INTO orders (id,customer,motorcycle,plate,status) VALUES (?,?,?,?,?)`,
		"ORD-"+year+"-0001", "Carlos Mendez", "Yamaha FZ-25", "ABC123", "pending")
	db.Exec(`INSERT INTO orders (id,customer,motorcycle,plate,status) VALUES (?,?,?,?,?)`,
		"ORD-"+year+"-0002", "Lucia Torres", "Honda CB190R", "XYZ789", "pending")
}

// nextID generates sequential ids like ORD-2026-0003.
func nextID(prefix string, table string, digits int) string {
	year := time.Now().Format("2006")
	pattern := prefix + "-" + year + "-%"
	var maxID sql.NullString
	db.QueryRow("SELECT id FROM "+table+" WHERE id LIKE ? ORDER BY id DESC LIMIT 1", pattern).Scan(&maxID)

	next := 1
	if maxID.Valid {
		parts := strings.Split(maxID.String, "-")
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
				next = n + 1
			}
		}
	}
	return fmt.Sprintf("%s-%s-%0*d", prefix, year, digits, next)
}
