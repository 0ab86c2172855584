/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the inventory tooling service. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (env vars as defaults)
  2. Open the SQLite store
  3. Build the sheets backend (HTTP API, or the in-memory fake when no
     credential is configured)
  4. Wire registry -> engine -> scanner -> forecaster -> tools -> router
  5. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (default 8000, env PORT)
  -db             SQLite database path (default inventory.db, env DATABASE_PATH)
                  Use ":memory:" for an in-memory database
  -sheets-token   Bearer token for the spreadsheet service (env SHEETS_TOKEN)
  -sheets-key     API key alternative to the token (env SHEETS_API_KEY)
  -default-sheet  Fallback sheet id for threshold scans (env DEFAULT_SHEET_ID)
  -min-samples    Minimum consumption entries before forecasting (default 2)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  in-flight requests, close the database, exit.

SEE ALSO:
  - api/server.go: router configuration
  - sheets/api.go, sheets/fake.go: backend selection
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/warp/stock-engine/api"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/registry"
	"github.com/warp/stock-engine/sheets"
	"github.com/warp/stock-engine/store/sqlite"
	"github.com/warp/stock-engine/tools"
)

func main() {
	// Flags, with env vars as defaults
	port := flag.Int("port", envInt("PORT", 8000), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "inventory.db"), "SQLite database path")
	sheetsToken := flag.String("sheets-token", os.Getenv("SHEETS_TOKEN"), "Bearer token for the spreadsheet service")
	sheetsKey := flag.String("sheets-key", os.Getenv("SHEETS_API_KEY"), "API key for the spreadsheet service")
	defaultSheet := flag.String("default-sheet", os.Getenv("DEFAULT_SHEET_ID"), "Fallback sheet id for threshold scans")
	minSamples := flag.Int("min-samples", 2, "Minimum consumption entries before forecasting")
	flag.Parse()

	// Store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Remote backend
	var backend sheets.Backend
	if *sheetsToken != "" || *sheetsKey != "" {
		backend = sheets.NewAPI(sheets.APIConfig{Token: *sheetsToken, APIKey: *sheetsKey})
	} else {
		log.Printf("WARN: no sheets credential configured; using in-memory fake backend")
		backend = sheets.NewFake()
	}
	client := sheets.NewClient(backend)

	// Domain wiring
	reg := registry.New(store, client)
	ledger := inventory.NewLedger(store)
	engine := inventory.NewEngine(reg, client, ledger)
	scanner := inventory.NewScanner(reg, client, inventory.SheetID(*defaultSheet))
	forecaster := inventory.NewForecaster(reg, client, ledger, *minSamples)
	dispatcher := tools.NewDispatcher(reg, engine, scanner, forecaster, store)

	handler := &api.Handler{
		Tools:      dispatcher,
		Registry:   reg,
		Engine:     engine,
		Scanner:    scanner,
		Forecaster: forecaster,
		Ledger:     ledger,
	}
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Inventory tooling service listening on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
