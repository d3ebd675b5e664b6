// Package auth reconciles the remote service's non-linear login protocol
// into a flat request/response shape. The orchestrator holds no state
// between calls: each attempt reconstructs where it is from the presence of
// a session file and the optional fields the caller supplied, so a caller
// can always safely retry a step.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Atmsamma/InstaConnect/internal/domain"
	"github.com/Atmsamma/InstaConnect/internal/insta"
	"github.com/Atmsamma/InstaConnect/internal/session"
)

// Request is one login attempt. ReuseSession is a tri-state: nil means the
// caller has not been asked about an existing session yet.
type Request struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ReuseSession    *bool  `json:"reuseSession,omitempty"`
	TwoFactorCode   string `json:"twoFactorCode,omitempty"`
	ChallengeMethod string `json:"challengeMethod,omitempty"`
	ChallengeCode   string `json:"challengeCode,omitempty"`
}

// Result is the outcome of one attempt. Exactly one of Success,
// SessionExists, RequiresTwoFactor, RequiresChallenge, or plain failure
// (Success false with a message) holds.
type Result struct {
	Success           bool                     `json:"success"`
	Message           string                   `json:"message,omitempty"`
	RequiresTwoFactor bool                     `json:"requiresTwoFactor,omitempty"`
	RequiresChallenge bool                     `json:"requiresChallenge,omitempty"`
	ChallengeMethods  []domain.ChallengeMethod `json:"challengeMethods,omitempty"`
	SessionExists     bool                     `json:"sessionExists,omitempty"`
	SessionFile       string                   `json:"sessionFile,omitempty"`
}

// Orchestrator drives multi-step logins against the remote service.
type Orchestrator struct {
	client   insta.AuthAPI
	sessions *session.Store
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates an orchestrator. The timeout bounds the whole remote portion
// of one attempt.
func New(client insta.AuthAPI, sessions *session.Store, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Orchestrator{client: client, sessions: sessions, timeout: timeout, logger: logger}
}

// Attempt performs one state transition of the login negotiation. Writing
// the session file is the only persistent side effect and happens exactly
// once, on success.
func (o *Orchestrator) Attempt(ctx context.Context, req Request) Result {
	if req.Username == "" || req.Password == "" {
		return Result{Message: "Username and password required"}
	}

	// A stored session with no stated preference is surfaced to the caller
	// before any remote call is made.
	if o.sessions.Exists(req.Username) && req.ReuseSession == nil {
		return Result{
			SessionExists: true,
			SessionFile:   o.sessions.FileName(req.Username),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if req.ReuseSession != nil {
		if *req.ReuseSession {
			if res, done := o.tryResume(ctx, req.Username); done {
				return res
			}
		} else if err := o.sessions.Delete(req.Username); err != nil {
			o.logger.Warn("could not delete old session before fresh login",
				"username", req.Username, "error", err)
		}
	}

	creds := insta.Credentials{
		Username:        req.Username,
		Password:        req.Password,
		TwoFactorCode:   req.TwoFactorCode,
		ChallengeMethod: req.ChallengeMethod,
		ChallengeCode:   req.ChallengeCode,
	}

	// Challenge method chosen but no code yet: ask the remote to deliver
	// one and bounce back to the caller. Re-requesting is safe.
	if req.ChallengeMethod != "" && req.ChallengeCode == "" {
		if err := o.client.RequestChallenge(ctx, creds, req.ChallengeMethod); err != nil {
			return o.mapRemoteError(err)
		}
		return Result{
			RequiresChallenge: true,
			Message:           "Verification code sent via " + req.ChallengeMethod,
		}
	}

	state, err := o.client.Login(ctx, creds)
	if err != nil {
		return o.mapRemoteError(err)
	}
	return o.persist(req.Username, state)
}

// tryResume validates a stored session. On success the refreshed blob is
// persisted and the attempt is done; on failure the stale session is
// discarded and the caller falls through to a fresh credential login.
func (o *Orchestrator) tryResume(ctx context.Context, username string) (Result, bool) {
	state, err := o.sessions.Load(username)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			o.logger.Warn("could not read stored session", "username", username, "error", err)
		}
		return Result{}, false
	}

	refreshed, err := o.client.Resume(ctx, username, state)
	if err != nil {
		o.logger.Warn("stored session rejected, falling back to fresh login",
			"username", username, "error", err)
		if delErr := o.sessions.Delete(username); delErr != nil {
			o.logger.Warn("could not delete stale session", "username", username, "error", delErr)
		}
		return Result{}, false
	}
	return o.persist(username, refreshed), true
}

// persist writes the session file and builds the success result.
func (o *Orchestrator) persist(username string, state []byte) Result {
	if err := o.sessions.Save(username, state); err != nil {
		o.logger.Error("login succeeded but session could not be saved",
			"username", username, "error", err)
		return Result{Message: "Login succeeded but the session could not be saved: " + err.Error()}
	}
	o.logger.Info("logged in, session saved", "username", username)
	return Result{
		Success: true,
		Message: "Logged in and session saved to " + o.sessions.FileName(username),
	}
}

// mapRemoteError turns remote failures into the structured protocol states
// the caller advances through. Two-factor and challenge demands are branches,
// not errors.
func (o *Orchestrator) mapRemoteError(err error) Result {
	if errors.Is(err, insta.ErrTwoFactorRequired) {
		return Result{
			RequiresTwoFactor: true,
			Message:           "Two-factor authentication required",
		}
	}
	var challenge *insta.ChallengeRequiredError
	if errors.As(err, &challenge) {
		return Result{
			RequiresChallenge: true,
			ChallengeMethods:  challenge.Methods,
			Message:           "Security challenge required",
		}
	}
	o.logger.Warn("login attempt failed", "error", err)
	return Result{Message: "Login failed: " + err.Error()}
}
