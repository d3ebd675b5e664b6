// Package logging sets up the structured loggers for both binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Atmsamma/InstaConnect/internal/config"
)

// NewServerLogger returns a JSON slog logger writing to stdout and a
// rotating log file.
func NewServerLogger(cfg config.LogConfig) *slog.Logger {
	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "server.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	handler := slog.NewJSONHandler(io.MultiWriter(os.Stdout, rotating), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

// NewWatcherLogger returns a text slog logger writing to stderr. The
// supervisor captures stderr line by line, so text output keeps the log ring
// human-readable.
func NewWatcherLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}
