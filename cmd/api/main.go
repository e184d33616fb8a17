package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/shelfward/shelfward/internal/catalog"
	"github.com/shelfward/shelfward/internal/config"
	"github.com/shelfward/shelfward/internal/httpapi"
	"github.com/shelfward/shelfward/internal/identity"
	"github.com/shelfward/shelfward/internal/obs"
	"github.com/shelfward/shelfward/internal/reservation"
	"github.com/shelfward/shelfward/internal/storage/postgres"
)

const serviceName = "shelfward-api"

const (
	shutdownTimeout = 10 * time.Second
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // optional, env vars win

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := obs.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	poolConfig, err := cfg.PGXPoolConfig()
	if err != nil {
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := postgres.NewStoreFromPGXPool(pool, postgres.WithLogger(logger))
	if err != nil {
		return err
	}

	if err = store.EnsureSchema(ctx); err != nil {
		return err
	}

	tokens := identity.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL())

	identitySvc := identity.NewService(store, tokens, identity.WithLogger(logger))
	catalogSvc := catalog.NewService(store)
	reservationSvc := reservation.NewService(store, store, store, store,
		reservation.WithLogger(logger),
		reservation.WithTracer(otel.Tracer(serviceName)))

	if err = identitySvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	api := httpapi.New(identitySvc, catalogSvc, reservationSvc, tokens,
		httpapi.WithLogger(logger),
		httpapi.WithLoginRateLimit(cfg.LoginRateRPS, cfg.LoginRateBurst))
	defer api.Close()

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
