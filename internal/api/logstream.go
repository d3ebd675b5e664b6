package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Atmsamma/InstaConnect/internal/supervisor"
)

// logPollInterval is how often the tail checks the ring for new entries.
const logPollInterval = time.Second

// logStreamFrame is one websocket frame of the live tail.
type logStreamFrame struct {
	Entries   []supervisor.LogEntry `json:"entries"`
	IsRunning bool                  `json:"isRunning"`
}

// StreamLogs upgrades to a websocket and tails the supervisor's log ring so
// the dashboard does not have to poll /api/bot/logs. Entries are pushed in
// order; the client resumes from the last sequence number it saw.
func (h *Handler) StreamLogs(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept log stream websocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("failed to close log stream websocket", "error", closeErr)
		}
	}()

	ctx := r.Context()
	ring := h.bot.Ring()

	// Send everything retained so far, then poll for new entries.
	var lastSeq int64
	if err := h.sendEntries(ctx, ws, ring.Snapshot(), &lastSeq); err != nil {
		return
	}

	ticker := time.NewTicker(logPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.sendEntries(ctx, ws, ring.Since(lastSeq), &lastSeq); err != nil {
				slog.Debug("log stream ended", "error", err)
				return
			}
		}
	}
}

func (h *Handler) sendEntries(ctx context.Context, ws *websocket.Conn, entries []supervisor.LogEntry, lastSeq *int64) error {
	if len(entries) == 0 {
		return nil
	}
	frame := logStreamFrame{
		Entries:   entries,
		IsRunning: h.bot.Status().Running,
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := wsjson.Write(writeCtx, ws, frame); err != nil {
		return err
	}
	*lastSeq = entries[len(entries)-1].Seq
	return nil
}
