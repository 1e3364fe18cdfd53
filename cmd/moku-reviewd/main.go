// Command moku-reviewd starts the HTTP + WebSocket server for the
// design review engine.
// Usage: go run ./cmd/moku-reviewd [addr]
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/raysh454/design-review/internal/appconfig"
	"github.com/raysh454/design-review/internal/browser"
	"github.com/raysh454/design-review/internal/checks"
	"github.com/raysh454/design-review/internal/httpapi"
	"github.com/raysh454/design-review/internal/interfaces"
	"github.com/raysh454/design-review/internal/logging"
	"github.com/raysh454/design-review/internal/review"
	"github.com/raysh454/design-review/internal/session"
	"github.com/raysh454/design-review/internal/sessionindex"
	"github.com/raysh454/design-review/internal/specloader"
)

func main() {
	cfg := appconfig.DefaultConfig()
	cfg.ApplyEnv()
	if len(os.Args) > 1 && os.Args[1] != "" {
		cfg.HTTP.ListenAddr = os.Args[1]
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	storageRoot, err := cfg.ExpandStorageRoot()
	if err != nil {
		log.Fatalf("expanding storage root: %v", err)
	}
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		log.Fatalf("creating storage root: %v", err)
	}

	store, err := session.NewStore(storageRoot)
	if err != nil {
		log.Fatalf("creating session store: %v", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(storageRoot, "sessions.db"))
	if err != nil {
		log.Fatalf("opening session index database: %v", err)
	}
	defer db.Close()

	index, err := sessionindex.Open(db)
	if err != nil {
		log.Fatalf("opening session index: %v", err)
	}

	loader := specloader.NewLoader(cfg.SpecSearchPaths...)
	registry := checks.NewRegistry()

	browserFactory := func(ctx context.Context, l interfaces.Logger) (interfaces.Browser, error) {
		return browser.Open(ctx, l, cfg.BrowserOptions()...)
	}

	orch := review.NewOrchestrator(store, browserFactory, logger)
	defer orch.Close()

	srv, err := httpapi.NewServer(httpapi.Config{
		ListenAddr:   cfg.HTTP.ListenAddr,
		Orchestrator: orch,
		Loader:       loader,
		Registry:     registry,
		Store:        store,
		Index:        index,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("creating server: %v", err)
	}
	defer srv.Close()

	httpServer := srv.HTTPServer()

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		srv.Close()
		close(idleConnsClosed)
	}()

	log.Printf("listening on %s", cfg.HTTP.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}

	<-idleConnsClosed
}
