// InstaConnect watcher process: polls DM threads and replies to triggers.
// Spawned and supervised by the server; all output goes to stderr where the
// supervisor captures it.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Atmsamma/InstaConnect/internal/config"
	"github.com/Atmsamma/InstaConnect/internal/insta"
	"github.com/Atmsamma/InstaConnect/internal/logging"
	"github.com/Atmsamma/InstaConnect/internal/session"
	"github.com/Atmsamma/InstaConnect/internal/tracker"
	"github.com/Atmsamma/InstaConnect/internal/watcher"
)

func main() {
	logger := logging.NewWatcherLogger()
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.DataDir)
	username, err := sessions.First()
	if errors.Is(err, session.ErrNotFound) {
		slog.Error("No session file found. Please log in first.")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to scan session directory", "error", err)
		os.Exit(1)
	}
	slog.Info("Using session", "account", username)

	state, err := sessions.Load(username)
	if err != nil {
		slog.Error("Failed to load session file", "account", username, "error", err)
		os.Exit(1)
	}

	gateway := insta.NewGateway(cfg.GatewayURL, cfg.RemoteTimeout, logger)
	gateway.SetSession(state)

	trk, err := tracker.Load(cfg.TrackerFile(), logger)
	if err != nil {
		slog.Error("Failed to load reply tracker", "error", err)
		os.Exit(1)
	}
	hist, err := tracker.LoadHistory(cfg.TriggerHistoryFile(), logger)
	if err != nil {
		slog.Error("Failed to load trigger history", "error", err)
		os.Exit(1)
	}

	matcher := watcher.NewMatcher(cfg.TriggerWords)
	sender := watcher.NewSender(gateway, cfg.RemoteTimeout, logger)
	loop := watcher.New(gateway, matcher, sender, trk, hist, watcher.Config{
		Interval:      cfg.PollInterval,
		Cooldown:      cfg.ErrorCooldown,
		FetchLimit:    cfg.ThreadFetchLimit,
		CallTimeout:   cfg.RemoteTimeout,
		ReplyTemplate: cfg.ReplyTemplate,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bot is running", "account", username)
	loop.Run(ctx)
	slog.Info("Bot stopped")
}
