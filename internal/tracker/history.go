package tracker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Atmsamma/InstaConnect/internal/domain"
)

// History is the append-only record of messages that fired a trigger, keyed
// by message ID. The bot only ever writes; an external reporting surface
// reads the file.
type History struct {
	path    string
	records map[string]domain.TriggerRecord
	logger  *slog.Logger
}

// LoadHistory reads the trigger-history file. Missing or corrupt files reset
// to empty; history loss is acceptable, a stuck bot is not.
func LoadHistory(path string, logger *slog.Logger) (*History, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &History{path: path, records: make(map[string]domain.TriggerRecord), logger: logger}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return h, nil
	case err != nil:
		return nil, fmt.Errorf("read trigger history: %w", err)
	}

	if err := json.Unmarshal(data, &h.records); err != nil {
		logger.Warn("trigger history corrupt, resetting to empty", "path", path, "error", err)
		h.records = make(map[string]domain.TriggerRecord)
	}
	return h, nil
}

// Record stores a trigger record and persists the history. Records are
// written once: a message ID already present is left untouched and Record
// reports false.
func (h *History) Record(rec domain.TriggerRecord) (bool, error) {
	if _, exists := h.records[rec.MessageID]; exists {
		return false, nil
	}
	h.records[rec.MessageID] = rec
	if err := writeJSONFile(h.path, h.records); err != nil {
		return false, fmt.Errorf("persist trigger history: %w", err)
	}
	return true, nil
}

// Len returns the number of recorded trigger events.
func (h *History) Len() int {
	return len(h.records)
}
