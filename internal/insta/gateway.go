package insta

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/Atmsamma/InstaConnect/internal/domain"
)

// sessionHeader carries the opaque session blob on authenticated calls.
const sessionHeader = "X-IG-Session"

// Gateway talks to the platform bridge over HTTP. The remote rate-limits
// aggressively, so every call waits on a shared limiter before going out.
type Gateway struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	mu      sync.RWMutex
	session []byte
}

// NewGateway creates a gateway against the given base URL. The timeout
// bounds each individual remote call.
func NewGateway(baseURL string, timeout time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Gateway{
		http: client,
		// One call in flight at a time, at most one every two seconds.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		logger:  logger,
	}
}

// SetSession installs the opaque session blob used for authenticated calls.
func (g *Gateway) SetSession(state []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = state
}

// errorEnvelope is the gateway's error body shape.
type errorEnvelope struct {
	ErrorCode        string                   `json:"error_code"`
	Message          string                   `json:"message"`
	ChallengeMethods []domain.ChallengeMethod `json:"challenge_methods,omitempty"`
}

// sessionEnvelope wraps the opaque session blob returned by login/resume.
type sessionEnvelope struct {
	Session json.RawMessage `json:"session"`
}

// Login implements AuthAPI.
func (g *Gateway) Login(ctx context.Context, creds Credentials) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var ok sessionEnvelope
	var fail errorEnvelope
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(&ok).
		SetError(&fail).
		Post("/v1/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	if resp.IsError() {
		return nil, mapAuthError(resp.StatusCode(), fail)
	}
	if len(ok.Session) == 0 {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: "login response carried no session"}
	}
	return ok.Session, nil
}

// Resume implements AuthAPI.
func (g *Gateway) Resume(ctx context.Context, username string, state []byte) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body := map[string]json.RawMessage{
		"username": mustJSON(username),
		"session":  json.RawMessage(state),
	}
	var ok sessionEnvelope
	var fail errorEnvelope
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&ok).
		SetError(&fail).
		Post("/v1/auth/resume")
	if err != nil {
		return nil, fmt.Errorf("resume request: %w", err)
	}
	if resp.IsError() {
		return nil, mapAuthError(resp.StatusCode(), fail)
	}
	if len(ok.Session) == 0 {
		// Remote accepted the session without refreshing it.
		return state, nil
	}
	return ok.Session, nil
}

// RequestChallenge implements AuthAPI.
func (g *Gateway) RequestChallenge(ctx context.Context, creds Credentials, method string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	body := struct {
		Credentials
		Method string `json:"method"`
	}{Credentials: creds, Method: method}

	var fail errorEnvelope
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&fail).
		Post("/v1/auth/challenge")
	if err != nil {
		return fmt.Errorf("challenge request: %w", err)
	}
	if resp.IsError() {
		return mapAuthError(resp.StatusCode(), fail)
	}
	g.logger.Info("challenge code requested", "method", method)
	return nil
}

// wireThread mirrors the gateway's thread shape.
type wireThread struct {
	ID       string        `json:"id"`
	Messages []wireMessage `json:"messages"`
}

type wireMessage struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Text       string     `json:"text"`
	Timestamp  *time.Time `json:"timestamp"`
	MediaShare *struct {
		Code string `json:"code"`
	} `json:"media_share"`
}

// Threads implements DirectAPI.
func (g *Gateway) Threads(ctx context.Context, limit int) ([]domain.Thread, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var ok struct {
		Threads []wireThread `json:"threads"`
	}
	var fail errorEnvelope
	resp, err := g.authed().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&ok).
		SetError(&fail).
		Get("/v1/direct/threads")
	if err != nil {
		return nil, fmt.Errorf("fetch threads: %w", err)
	}
	if resp.IsError() {
		return nil, mapAuthError(resp.StatusCode(), fail)
	}

	threads := make([]domain.Thread, 0, len(ok.Threads))
	for _, wt := range ok.Threads {
		th := domain.Thread{ID: wt.ID, Messages: make([]domain.Message, 0, len(wt.Messages))}
		for _, wm := range wt.Messages {
			msg := domain.Message{
				ID:        wm.ID,
				UserID:    wm.UserID,
				Text:      wm.Text,
				Timestamp: wm.Timestamp,
			}
			if wm.MediaShare != nil {
				msg.MediaShare = &domain.MediaShare{Code: wm.MediaShare.Code}
			}
			th.Messages = append(th.Messages, msg)
		}
		threads = append(threads, th)
	}
	return threads, nil
}

// Username implements DirectAPI.
func (g *Gateway) Username(ctx context.Context, userID string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var ok struct {
		Username string `json:"username"`
	}
	var fail errorEnvelope
	resp, err := g.authed().
		SetContext(ctx).
		SetResult(&ok).
		SetError(&fail).
		Get("/v1/users/" + userID)
	if err != nil {
		return "", fmt.Errorf("lookup user %s: %w", userID, err)
	}
	if resp.IsError() {
		return "", mapAuthError(resp.StatusCode(), fail)
	}
	return ok.Username, nil
}

// Reply implements DirectAPI.
func (g *Gateway) Reply(ctx context.Context, threadID, text string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	var fail errorEnvelope
	resp, err := g.authed().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		SetError(&fail).
		Post("/v1/direct/threads/" + threadID + "/reply")
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	if resp.IsError() {
		return mapAuthError(resp.StatusCode(), fail)
	}
	return nil
}

// MarkSeen implements DirectAPI.
func (g *Gateway) MarkSeen(ctx context.Context, threadID, messageID string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	var fail errorEnvelope
	resp, err := g.authed().
		SetContext(ctx).
		SetBody(map[string]string{"message_id": messageID}).
		SetError(&fail).
		Post("/v1/direct/threads/" + threadID + "/seen")
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	if resp.IsError() {
		return mapAuthError(resp.StatusCode(), fail)
	}
	return nil
}

// authed returns a request builder carrying the session header.
func (g *Gateway) authed() *resty.Request {
	g.mu.RLock()
	state := g.session
	g.mu.RUnlock()

	r := g.http.R()
	if len(state) > 0 {
		r.SetHeader(sessionHeader, base64.StdEncoding.EncodeToString(state))
	}
	return r
}

// mapAuthError turns a gateway error body into a typed error.
func mapAuthError(status int, env errorEnvelope) error {
	switch env.ErrorCode {
	case "two_factor_required":
		return ErrTwoFactorRequired
	case "challenge_required":
		return &ChallengeRequiredError{Methods: env.ChallengeMethods}
	}
	msg := env.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Code: env.ErrorCode, Message: msg}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
