// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iyunix/go-medreport/internal/config"
	"github.com/iyunix/go-medreport/internal/database"
	"github.com/iyunix/go-medreport/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := services.NewLogger("medreport")

	db, err := database.Open(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	app, err := InitializeApplication(cfg, logger, db)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Index.EnsureCollection(ctx); err != nil {
		log.Fatalf("FATAL: Failed to prepare vector collection: %v", err)
	}
	app.Pool.Start()

	port := ":8080"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:              port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server starting",
		"addr", port,
		"vector_backend", cfg.VectorBackend,
		"workers", cfg.AnalysisWorkers,
		"auth", cfg.JWTSecretKey != "",
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.Reconciler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", "error", err)
	}

	// In-flight analyses finish before their stores go away.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("analysis pool did not drain", "error", err)
	}
	if app.Limiter != nil {
		app.Limiter.Close()
	}
	if err := app.Index.Close(); err != nil {
		logger.Warn("vector index close failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server stopped")
}
