// Package api provides HTTP handlers for the InstaConnect control plane.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Atmsamma/InstaConnect/internal/auth"
	"github.com/Atmsamma/InstaConnect/internal/store"
	"github.com/Atmsamma/InstaConnect/internal/supervisor"
)

// LoginService drives one step of the multi-step login negotiation.
type LoginService interface {
	Attempt(ctx context.Context, req auth.Request) auth.Result
}

// BotController is the slice of the supervisor the handlers need.
type BotController interface {
	Start() error
	Stop() error
	Status() supervisor.Status
	Ring() *supervisor.LogRing
}

// Handler provides common handler dependencies.
type Handler struct {
	repo     store.Repository
	login    LoginService
	bot      BotController
	triggers []string
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, login LoginService, bot BotController, triggers []string) *Handler {
	return &Handler{
		repo:     repo,
		login:    login,
		bot:      bot,
		triggers: triggers,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
