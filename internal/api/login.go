package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Atmsamma/InstaConnect/internal/auth"
	"github.com/Atmsamma/InstaConnect/internal/domain"
)

// Login handles one step of the login negotiation. The response always has
// status 200 with the structured result; protocol steps (two-factor,
// challenge) are states, not HTTP errors.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.Request
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.login.Attempt(r.Context(), req)

	if result.Success {
		now := time.Now()
		account := &domain.Account{
			Username:    req.Username,
			SessionFile: req.Username + "_session.json",
			LastLoginAt: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := h.repo.UpsertAccount(r.Context(), account); err != nil {
			// The login itself succeeded; the registry is best-effort.
			slog.Error("failed to record account", "username", req.Username, "error", err)
		}
	}

	JSON(w, http.StatusOK, result)
}

// ListAccounts returns every account that has ever logged in.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.repo.ListAccounts(r.Context())
	if err != nil {
		slog.Error("failed to list accounts", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	out := make([]map[string]interface{}, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, map[string]interface{}{
			"username":      a.Username,
			"session_file":  a.SessionFile,
			"last_login_at": a.LastLoginAt.Unix(),
		})
	}
	JSON(w, http.StatusOK, map[string]interface{}{"accounts": out})
}
