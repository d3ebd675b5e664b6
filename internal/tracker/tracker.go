// Package tracker provides the durable files behind at-most-once replies:
// the per-thread reply tracker and the append-only trigger history. Both are
// single-writer JSON files rewritten in full on every update, and both heal
// to empty on corruption instead of halting the bot.
package tracker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Entry records the most recently processed message in a thread.
type Entry struct {
	LastRepliedMessageID string `json:"lastRepliedMessageId"`
}

// Tracker maps thread IDs to the last message the bot handled there.
type Tracker struct {
	path    string
	entries map[string]Entry
	logger  *slog.Logger
}

// Load reads the tracker file. A missing or corrupt file is treated as empty
// and an empty file is written back immediately so the corruption heals
// rather than crashing the loop.
func Load(path string, logger *slog.Logger) (*Tracker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{path: path, entries: make(map[string]Entry), logger: logger}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := t.save(); err != nil {
			return nil, fmt.Errorf("initialize tracker file: %w", err)
		}
		return t, nil
	case err != nil:
		return nil, fmt.Errorf("read tracker file: %w", err)
	}

	if err := json.Unmarshal(data, &t.entries); err != nil {
		logger.Warn("tracker file corrupt, resetting to empty", "path", path, "error", err)
		t.entries = make(map[string]Entry)
		if err := t.save(); err != nil {
			return nil, fmt.Errorf("heal tracker file: %w", err)
		}
	}
	return t, nil
}

// LastReplied returns the last processed message ID for a thread, or the
// empty string if the thread has never been handled.
func (t *Tracker) LastReplied(threadID string) string {
	return t.entries[threadID].LastRepliedMessageID
}

// MarkReplied records messageID as the last processed message in the thread
// and persists the whole tracker.
func (t *Tracker) MarkReplied(threadID, messageID string) error {
	t.entries[threadID] = Entry{LastRepliedMessageID: messageID}
	if err := t.save(); err != nil {
		return fmt.Errorf("persist tracker: %w", err)
	}
	return nil
}

// Len returns the number of tracked threads.
func (t *Tracker) Len() int {
	return len(t.entries)
}

func (t *Tracker) save() error {
	return writeJSONFile(t.path, t.entries)
}

// writeJSONFile rewrites a JSON file in full via temp-file rename, so readers
// never observe a partial write.
func writeJSONFile(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
