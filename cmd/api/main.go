// Package main is the entry point for the tripsync API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/tripsync/backend/internal/config"
	"github.com/pkordes/tripsync/backend/internal/handler"
	"github.com/pkordes/tripsync/backend/internal/logging"
	"github.com/pkordes/tripsync/backend/internal/middleware"
	"github.com/pkordes/tripsync/backend/internal/remote"
	"github.com/pkordes/tripsync/backend/internal/repo"
	"github.com/pkordes/tripsync/backend/internal/service"
	"github.com/pkordes/tripsync/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	// A missing .env is fine; real environment variables always win.
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	logger, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Store ------------------------------------------------------------
	trips, stops, closeStore, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// --- Services ---------------------------------------------------------
	opts := service.Options{
		Fallback:  cfg.RemoteFallback,
		CreatorID: cfg.CreatorID,
		Logger:    logger,
	}
	if cfg.RemoteURL != "" {
		opts.Remote = remote.NewClient(cfg.RemoteURL, cfg.RemoteTimeout)
		slog.Info("remote trip service enabled", "url", cfg.RemoteURL, "fallback", cfg.RemoteFallback)
	} else {
		slog.Info("remote trip service disabled; trips are created locally")
	}

	tripSvc := service.NewTripService(trips, stops, opts)
	exportSvc := service.NewExportService(trips)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit → idempotency.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Not fatal: the middleware fails open while Redis is down.
			slog.Warn("redis unreachable; idempotency keys ignored until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		r.Use(middleware.NewIdempotencyHandler(rdb, logger, middleware.IdempotencyOptions{}))
	}

	r.Handle("/metrics", promhttp.Handler())
	handler.HandlerFromMux(handler.NewServer(tripSvc, exportSvc, logger), r)

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// WriteTimeout leaves room for a full remote call on POST /trips.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RemoteTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore returns the Postgres repos when databaseURL is set, migrating the
// schema first, and the in-memory store otherwise.
func openStore(ctx context.Context, databaseURL string) (repo.TripRepo, repo.StopRepo, func(), error) {
	if databaseURL == "" {
		slog.Warn("DATABASE_URL not set; using in-memory store, trips are lost on exit")
		store := repo.NewMemoryStore()
		return store, store, func() {}, nil
	}

	if err := migrate(ctx, databaseURL); err != nil {
		return nil, nil, nil, err
	}

	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create database pool: %w", err)
	}

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("database connection established")

	return repo.NewTripRepo(pool), repo.NewStopRepo(pool), pool.Close, nil
}

// migrate applies pending migrations through goose, which needs database/sql.
func migrate(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration", res.Duration)
	}
	return nil
}
