package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avikom/catersync/internal/server/handlers"
	"github.com/avikom/catersync/internal/server/middleware"
	"github.com/avikom/catersync/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	defaultAddr     = ":8080"
	defaultDBPath   = "catersync.db"
	defaultTokenTTL = 24 * time.Hour

	shutdownTimeout = 10 * time.Second

	// Auth endpoints are throttled per client IP.
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type config struct {
	addr      string
	dbPath    string
	jwtSecret string
	tokenTTL  time.Duration
	debug     bool
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")

	var cfg config
	flag.StringVar(&cfg.addr, "addr", envOr("CATERSYNC_ADDR", defaultAddr), "Listen address")
	flag.StringVar(&cfg.dbPath, "db", envOr("CATERSYNC_DB", defaultDBPath), "SQLite database path")
	flag.StringVar(&cfg.jwtSecret, "jwt-secret", os.Getenv("CATERSYNC_JWT_SECRET"), "JWT signing secret")
	flag.DurationVar(&cfg.tokenTTL, "token-ttl", defaultTokenTTL, "Access token lifetime")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if cfg.jwtSecret == "" {
		return errors.New("JWT secret is required (set -jwt-secret or CATERSYNC_JWT_SECRET)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	jwtConfig := handlers.JWTConfig{
		Secret:         []byte(cfg.jwtSecret),
		AccessTokenTTL: cfg.tokenTTL,
	}

	authHandler := handlers.NewAuthHandler(logger, store, jwtConfig)
	entityHandler := handlers.NewEntityHandler(logger, store)
	healthHandler := handlers.NewHealthHandler(logger, store)

	requireAuth := middleware.AuthMiddleware(logger, jwtConfig)
	throttleAuth := middleware.RateLimitMiddleware(authRateLimit, authRateWindow, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.Handle("POST /api/v1/auth/register", throttleAuth(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", throttleAuth(http.HandlerFunc(authHandler.Login)))
	mux.Handle("GET /api/v1/{collection}", requireAuth(http.HandlerFunc(entityHandler.List)))
	mux.Handle("POST /api/v1/{collection}", requireAuth(http.HandlerFunc(entityHandler.Create)))
	mux.Handle("GET /api/v1/{collection}/{id}", requireAuth(http.HandlerFunc(entityHandler.Get)))
	mux.Handle("PUT /api/v1/{collection}/{id}", requireAuth(http.HandlerFunc(entityHandler.Update)))
	mux.Handle("DELETE /api/v1/{collection}/{id}", requireAuth(http.HandlerFunc(entityHandler.Delete)))

	handler := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(mux))

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", cfg.addr),
			slog.String("db", cfg.dbPath),
			slog.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printVersion() {
	fmt.Printf("CaterSync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
