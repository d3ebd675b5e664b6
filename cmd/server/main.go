// InstaConnect control-plane server: login negotiation, bot lifecycle, logs.
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/Atmsamma/InstaConnect/internal/api"
	"github.com/Atmsamma/InstaConnect/internal/auth"
	"github.com/Atmsamma/InstaConnect/internal/config"
	"github.com/Atmsamma/InstaConnect/internal/insta"
	"github.com/Atmsamma/InstaConnect/internal/logging"
	"github.com/Atmsamma/InstaConnect/internal/middleware"
	"github.com/Atmsamma/InstaConnect/internal/session"
	"github.com/Atmsamma/InstaConnect/internal/store"
	"github.com/Atmsamma/InstaConnect/internal/supervisor"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewServerLogger(cfg.Log)
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	sessions := session.NewStore(cfg.DataDir)
	gateway := insta.NewGateway(cfg.GatewayURL, cfg.RemoteTimeout, logger)
	orchestrator := auth.New(gateway, sessions, cfg.RemoteTimeout, logger)

	sup := supervisor.New(supervisor.Config{
		Command:      []string{cfg.BotBinary},
		Grace:        cfg.StopGrace,
		RingCapacity: cfg.LogBufferSize,
	}, sessions, logger)

	handler := api.NewHandler(repo, orchestrator, sup, cfg.TriggerWords)

	// Setup router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	origins := []string{"*"}
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(origins))

	handler.RegisterRoutes(r)
	r.Get("/ws/logs", handler.StreamLogs)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no timeout: the log stream websocket is long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	// Take the bot down with us; a headless watcher has no owner.
	if err := sup.Stop(); err != nil && !errors.Is(err, supervisor.ErrNotRunning) {
		slog.Error("Failed to stop bot during shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
