package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/joho/godotenv"

	"motoshop/internal/response"
)

var shopName string

func main() {
	// .env is optional; real env vars win over it
	godotenv.Load()

	configPath := flag.String("config", "motoshop.yml", "Config file path")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("Config load failed:", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	shopName = cfg.ShopName

	if err := initDB(cfg.DBPath); err != nil {
		log.Fatal("DB init failed:", err)
	}
	seedDB()

	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "static/index.html")
	})

	// WebSocket
	mux.HandleFunc("/ws", handleWebSocket)

	// Auth routes
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogin(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogout(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		handleMe(w, r)
	})

	// API routes - using a simple router
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		switch {
		// Config
		case path == "config" && r.Method == "GET":
			handleConfig(w, r)

		// Audit
		case parts[0] == "audit" && len(parts) == 1 && r.Method == "GET":
			handleAuditLog(w, r)

		// Services
		case path == "services/code-check" && r.Method == "GET":
			handleServiceCodeCheck(w, r)
		case parts[0] == "services" && len(parts) == 1 && r.Method == "GET":
			handleListServices(w, r)
		case parts[0] == "services" && len(parts) == 1 && r.Method == "POST":
			handleCreateService(w, r)
		case parts[0] == "services" && len(parts) == 2 && r.Method == "GET":
			handleGetService(w, r, parts[1])
		case parts[0] == "services" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateService(w, r, parts[1])
		case parts[0] == "services" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteService(w, r, parts[1])
		case parts[0] == "services" && len(parts) == 3 && parts[2] == "toggle" && r.Method == "POST":
			handleToggleService(w, r, parts[1])

		// Parts
		case path == "parts/code-check" && r.Method == "GET":
			handlePartCodeCheck(w, r)
		case parts[0] == "parts" && len(parts) == 1 && r.Method == "GET":
			handleListParts(w, r)
		case parts[0] == "parts" && len(parts) == 1 && r.Method == "POST":
			handleCreatePart(w, r)
		case parts[0] == "parts" && len(parts) == 2 && r.Method == "GET":
			handleGetPart(w, r, parts[1])
		case parts[0] == "parts" && len(parts) == 2 && r.Method == "PUT":
			handleUpdatePart(w, r, parts[1])
		case parts[0] == "parts" && len(parts) == 2 && r.Method == "DELETE":
			handleDeletePart(w, r, parts[1])
		case parts[0] == "parts" && len(parts) == 3 && parts[2] == "toggle" && r.Method == "POST":
			handleTogglePart(w, r, parts[1])
		case parts[0] == "parts" && len(parts) == 3 && parts[2] == "history" && r.Method == "GET":
			handlePartHistory(w, r, parts[1])

		// Inventory
		case path == "inventory/transact" && r.Method == "POST":
			handleInventoryTransact(w, r)
		case path == "inventory/movements" && r.Method == "GET":
			handleListMovements(w, r)
		case path == "inventory/lowstock" && r.Method == "GET":
			handleLowStock(w, r)

		// Orders
		case parts[0] == "orders" && len(parts) == 1 && r.Method == "GET":
			handleListOrders(w, r)
		case parts[0] == "orders" && len(parts) == 1 && r.Method == "POST":
			handleCreateOrder(w, r)
		case parts[0] == "orders" && len(parts) == 2 && r.Method == "GET":
			handleGetOrder(w, r, parts[1])
		case parts[0] == "orders" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateOrder(w, r, parts[1])
		case parts[0] == "orders" && len(parts) == 3 && parts[2] == "status" && r.Method == "PUT":
			handleOrderStatus(w, r, parts[1])
		case parts[0] == "orders" && len(parts) == 3 && parts[2] == "fulfillment" && r.Method == "POST":
			handleOrderFulfillment(w, r, parts[1])

		// Exports
		case path == "export/services" && r.Method == "GET":
			handleExportServices(w, r)
		case path == "export/parts" && r.Method == "GET":
			handleExportParts(w, r)
		case path == "export/movements" && r.Method == "GET":
			handleExportMovements(w, r)

		default:
			json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		}
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("%s server starting on http://localhost%s", shopName, addr)
	log.Fatal(http.ListenAndServe(addr, logging(requireAuth(requireRBAC(mux)))))
}

func handleConfig(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, map[string]string{"shop_name": shopName})
}

func jsonResp(w http.ResponseWriter, data interface{}) {
	response.JSON(w, data)
}

func jsonRespMeta(w http.ResponseWriter, data interface{}, total, page, limit int) {
	response.JSONMeta(w, data, total, page, limit)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	response.Err(w, msg, code)
}

func decodeBody(r *http.Request, v interface{}) error {
	return response.DecodeBody(r, v)
}
