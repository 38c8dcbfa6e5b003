package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reeler/internal/clients"
	"reeler/internal/config"
	handlers "reeler/internal/http"
	"reeler/internal/importer"
	"reeler/internal/logger"
	"reeler/internal/pending"
	"reeler/internal/queue"
	"reeler/internal/registry"
	"reeler/internal/store"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Core state
	reg := registry.New(db, appLogger)
	pendingStore := pending.NewStore(appLogger)
	reg.SetPendingRemover(pendingStore)
	manager := clients.NewManager(appLogger)

	// Without a real download client configured the daemon runs against the
	// built-in mock, which is enough to drive the queue end to end.
	manager.Register(1, clients.NewMockClient("builtin"))

	// Import pipeline + poller
	imp := importer.New(reg, db, appLogger)
	poller := clients.NewPoller(manager, reg, imp, cfg.PollInterval, cfg.ClientTimeout, appLogger)
	poller.Start()
	defer poller.Stop()

	// Queue service
	queueService := queue.New(reg, pendingStore, manager, db, db, db, appLogger)

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := handlers.NewHandler(queueService, db, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
