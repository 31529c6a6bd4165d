package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// defaultCanvasColor is the blank-canvas white every pixel starts at.
var defaultCanvasColor = RGB{R: 255, G: 255, B: 255}

// app owns the whole mutable state of the service: the canvas, the
// cooldown ledger, the broadcast hub and the persistence worker. One
// instance is built in main and handed to the handler factories; mu
// guards canvas and ledger together so that cooldown check-and-consume
// plus the buffer write execute as a single critical section.
type app struct {
	mu        sync.Mutex
	canvas    *CanvasBuffer
	ledger    *CooldownLedger
	hub       *BroadcastHub
	persister *Persister
	cooldown  time.Duration
	reset     *AdminResetGuard
}

func parseEnvInt(key string, fallback int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return fallback
}

func main() {
	// Canvas geometry and cooldown
	width := parseEnvInt("CANVAS_WIDTH", 16)
	height := parseEnvInt("CANVAS_HEIGHT", 16)
	if width <= 0 || height <= 0 {
		log.Fatal("CANVAS_WIDTH and CANVAS_HEIGHT must be positive")
	}
	cooldownSeconds := parseEnvInt("COOLDOWN_SECONDS", 10)
	log.Println("Canvas:", width, "x", height, "cooldown (s):", cooldownSeconds)

	// Database
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("failed to open database:", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping database:", err)
	}
	log.Println("Connected to PostgreSQL")

	if err := ensureSchema(db); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}

	store := &postgresStore{db: db}
	canvas := NewCanvasBuffer(width, height)
	if err := loadOrInitialize(store, canvas, defaultCanvasColor); err != nil {
		log.Fatal("Failed to initialize canvas from pixel store:", err)
	}

	a := &app{
		canvas:    canvas,
		ledger:    NewCooldownLedger(),
		hub:       NewBroadcastHub(),
		persister: NewPersister(store),
		cooldown:  time.Duration(cooldownSeconds) * time.Second,
	}

	if hash := strings.TrimSpace(os.Getenv("RESET_SECRET_HASH")); hash != "" {
		a.reset = NewAdminResetGuard(strings.ToLower(hash))
	} else {
		log.Println("RESET_SECRET_HASH not set; canvas reset disabled")
	}

	a.persister.Start()
	startLedgerCleanupLoop(a)

	// HTTP server
	mux := http.NewServeMux()
	registerRoutes(mux, a)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := "0.0.0.0:" + port
	log.Println("Listening on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("server failed:", err)
	}
}

func registerRoutes(mux *http.ServeMux, a *app) {
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/canvas", canvasHandler(a))
	mux.HandleFunc("/pixel", mutateHandler(a))
	mux.HandleFunc("/pixel-sync", streamHandler(a))
	mux.HandleFunc("/reset", resetHandler(a))
}
