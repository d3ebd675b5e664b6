// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	// DataDir holds session files and the output/ directory with the
	// tracker and trigger-history files.
	DataDir string

	// GatewayURL is the base URL of the platform bridge.
	GatewayURL    string
	RemoteTimeout time.Duration

	TriggerWords  []string
	ReplyTemplate string

	PollInterval     time.Duration
	ErrorCooldown    time.Duration
	ThreadFetchLimit int

	// BotBinary is the watcher executable the supervisor spawns.
	BotBinary     string
	StopGrace     time.Duration
	LogBufferSize int

	Log LogConfig
}

// LogConfig controls the server's rotating log file.
type LogConfig struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		FrontendURL:      getEnv("FRONTEND_URL", ""),
		DBPath:           getEnv("DB_PATH", "./data/instaconnect.db"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		GatewayURL:       getEnv("GATEWAY_URL", "http://localhost:8091"),
		RemoteTimeout:    getEnvDuration("REMOTE_TIMEOUT", 30*time.Second),
		TriggerWords:     splitList(getEnv("TRIGGER_WORDS", "whereclipped,cliplive")),
		ReplyTemplate:    getEnv("REPLY_TEMPLATE", "👋 Thanks @{username}, I'll look into that!"),
		PollInterval:     getEnvDuration("POLL_INTERVAL", 15*time.Second),
		ErrorCooldown:    getEnvDuration("ERROR_COOLDOWN", 30*time.Second),
		ThreadFetchLimit: getEnvInt("THREAD_FETCH_LIMIT", 10),
		BotBinary:        getEnv("BOT_BINARY", "instabot"),
		StopGrace:        getEnvDuration("STOP_GRACE", 5*time.Second),
		LogBufferSize:    getEnvInt("LOG_BUFFER_SIZE", 500),
		Log: LogConfig{
			Dir:        getEnv("LOG_DIR", "./data/logs"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}
	if c.GatewayURL == "" {
		return fmt.Errorf("GATEWAY_URL cannot be empty")
	}
	if len(c.TriggerWords) == 0 {
		return fmt.Errorf("TRIGGER_WORDS cannot be empty")
	}
	if c.ThreadFetchLimit <= 0 {
		return fmt.Errorf("THREAD_FETCH_LIMIT must be > 0")
	}
	if c.LogBufferSize <= 0 {
		return fmt.Errorf("LOG_BUFFER_SIZE must be > 0")
	}
	return nil
}

// TrackerFile is the path of the replied-messages tracker.
func (c *Config) TrackerFile() string {
	return filepath.Join(c.DataDir, "output", "replied_messages_tracker.json")
}

// TriggerHistoryFile is the path of the trigger-message history.
func (c *Config) TriggerHistoryFile() string {
	return filepath.Join(c.DataDir, "output", "trigger_messages.json")
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
