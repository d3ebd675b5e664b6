package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Atmsamma/InstaConnect/internal/supervisor"
)

// RegisterRoutes registers all control-plane routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Get("/accounts", h.ListAccounts)
		r.Route("/bot", func(r chi.Router) {
			r.Post("/start", h.StartBot)
			r.Post("/stop", h.StopBot)
			r.Get("/logs", h.Logs)
			r.Get("/triggers", h.Triggers)
		})
	})
}

// StartBot spawns the watcher process.
func (h *Handler) StartBot(w http.ResponseWriter, r *http.Request) {
	err := h.bot.Start()
	switch {
	case errors.Is(err, supervisor.ErrAlreadyRunning):
		Error(w, http.StatusConflict, "bot_already_running")
	case errors.Is(err, supervisor.ErrNoSession):
		Error(w, http.StatusBadRequest, "no_session")
	case err != nil:
		slog.Error("failed to start bot", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
	default:
		slog.Info("bot started")
		JSON(w, http.StatusOK, map[string]string{"status": "started"})
	}
}

// StopBot terminates the watcher process.
func (h *Handler) StopBot(w http.ResponseWriter, r *http.Request) {
	err := h.bot.Stop()
	switch {
	case errors.Is(err, supervisor.ErrNotRunning):
		Error(w, http.StatusConflict, "bot_not_running")
	case err != nil:
		slog.Error("failed to stop bot", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
	default:
		slog.Info("bot stopped")
		JSON(w, http.StatusOK, map[string]string{"status": "stopped"})
	}
}

// Logs returns the retained log lines and whether the bot is running.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	status := h.bot.Status()
	JSON(w, http.StatusOK, map[string]interface{}{
		"logs":      status.Logs,
		"isRunning": status.Running,
	})
}

// Triggers returns the configured trigger words.
func (h *Handler) Triggers(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"triggers": h.triggers})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
