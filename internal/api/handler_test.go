package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Atmsamma/InstaConnect/internal/auth"
	"github.com/Atmsamma/InstaConnect/internal/domain"
	"github.com/Atmsamma/InstaConnect/internal/supervisor"
)

type fakeRepo struct {
	accounts    map[string]*domain.Account
	listErr     error
	upsertErr   error
	upsertCalls []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[string]*domain.Account)}
}

func (f *fakeRepo) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	return f.accounts[username], nil
}

func (f *fakeRepo) UpsertAccount(ctx context.Context, account *domain.Account) error {
	f.upsertCalls = append(f.upsertCalls, account.Username)
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.accounts[account.Username] = account
	return nil
}

func (f *fakeRepo) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepo) TouchLogin(ctx context.Context, username string, at time.Time) error { return nil }
func (f *fakeRepo) Ping(ctx context.Context) error                                      { return nil }
func (f *fakeRepo) Close() error                                                        { return nil }

type fakeLogin struct {
	result  auth.Result
	lastReq auth.Request
}

func (f *fakeLogin) Attempt(ctx context.Context, req auth.Request) auth.Result {
	f.lastReq = req
	return f.result
}

type fakeBot struct {
	startErr error
	stopErr  error
	status   supervisor.Status
	ring     *supervisor.LogRing
}

func (f *fakeBot) Start() error              { return f.startErr }
func (f *fakeBot) Stop() error               { return f.stopErr }
func (f *fakeBot) Status() supervisor.Status { return f.status }
func (f *fakeBot) Ring() *supervisor.LogRing { return f.ring }

func newTestRouter(repo *fakeRepo, login *fakeLogin, bot *fakeBot) http.Handler {
	if bot.ring == nil {
		bot.ring = supervisor.NewLogRing(10)
	}
	r := chi.NewRouter()
	NewHandler(repo, login, bot, []string{"whereclipped", "cliplive"}).RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLoginForwardsRequestAndResult(t *testing.T) {
	login := &fakeLogin{result: auth.Result{RequiresTwoFactor: true, Message: "Two-factor authentication required"}}
	repo := newFakeRepo()
	h := newTestRouter(repo, login, &fakeBot{})

	rec := doRequest(t, h, http.MethodPost, "/api/login",
		`{"username":"alice","password":"pw","twoFactorCode":"123456"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if login.lastReq.Username != "alice" || login.lastReq.TwoFactorCode != "123456" {
		t.Errorf("request not forwarded: %+v", login.lastReq)
	}

	var res auth.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.RequiresTwoFactor {
		t.Errorf("result not passed through: %+v", res)
	}
	if len(repo.upsertCalls) != 0 {
		t.Error("incomplete login must not record an account")
	}
}

func TestLoginSuccessRecordsAccount(t *testing.T) {
	login := &fakeLogin{result: auth.Result{Success: true}}
	repo := newFakeRepo()
	h := newTestRouter(repo, login, &fakeBot{})

	rec := doRequest(t, h, http.MethodPost, "/api/login", `{"username":"alice","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(repo.upsertCalls) != 1 || repo.upsertCalls[0] != "alice" {
		t.Errorf("expected account upsert for alice, got %v", repo.upsertCalls)
	}
	if repo.accounts["alice"].SessionFile != "alice_session.json" {
		t.Errorf("unexpected session file %q", repo.accounts["alice"].SessionFile)
	}
}

func TestLoginSucceedsEvenWhenRegistryFails(t *testing.T) {
	login := &fakeLogin{result: auth.Result{Success: true}}
	repo := newFakeRepo()
	repo.upsertErr = errors.New("disk full")
	h := newTestRouter(repo, login, &fakeBot{})

	rec := doRequest(t, h, http.MethodPost, "/api/login", `{"username":"alice","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("registry failure must not fail the login, got %d", rec.Code)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	h := newTestRouter(newFakeRepo(), &fakeLogin{}, &fakeBot{})

	rec := doRequest(t, h, http.MethodPost, "/api/login", `{"username":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStartBotStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"started", nil, http.StatusOK},
		{"already running", supervisor.ErrAlreadyRunning, http.StatusConflict},
		{"no session", supervisor.ErrNoSession, http.StatusBadRequest},
		{"other failure", errors.New("exec format error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(newFakeRepo(), &fakeLogin{}, &fakeBot{startErr: tt.err})
			rec := doRequest(t, h, http.MethodPost, "/api/bot/start", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestStopBotStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"stopped", nil, http.StatusOK},
		{"not running", supervisor.ErrNotRunning, http.StatusConflict},
		{"other failure", errors.New("wait failed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(newFakeRepo(), &fakeLogin{}, &fakeBot{stopErr: tt.err})
			rec := doRequest(t, h, http.MethodPost, "/api/bot/stop", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestLogsReportsRingAndLiveness(t *testing.T) {
	bot := &fakeBot{status: supervisor.Status{
		Running: true,
		Logs:    []string{"10:00:00 bot process started"},
	}}
	h := newTestRouter(newFakeRepo(), &fakeLogin{}, bot)

	rec := doRequest(t, h, http.MethodGet, "/api/bot/logs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Logs      []string `json:"logs"`
		IsRunning bool     `json:"isRunning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.IsRunning || len(body.Logs) != 1 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestTriggersReturnsConfiguredWords(t *testing.T) {
	h := newTestRouter(newFakeRepo(), &fakeLogin{}, &fakeBot{})

	rec := doRequest(t, h, http.MethodGet, "/api/bot/triggers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Triggers []string `json:"triggers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Triggers) != 2 || body.Triggers[0] != "whereclipped" {
		t.Errorf("unexpected triggers %v", body.Triggers)
	}
}

func TestListAccounts(t *testing.T) {
	repo := newFakeRepo()
	repo.accounts["alice"] = &domain.Account{
		Username:    "alice",
		SessionFile: "alice_session.json",
		LastLoginAt: time.Unix(1700000000, 0),
	}
	h := newTestRouter(repo, &fakeLogin{}, &fakeBot{})

	rec := doRequest(t, h, http.MethodGet, "/api/accounts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Accounts []struct {
			Username    string `json:"username"`
			SessionFile string `json:"session_file"`
			LastLoginAt int64  `json:"last_login_at"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Accounts) != 1 || body.Accounts[0].Username != "alice" {
		t.Fatalf("unexpected accounts %+v", body.Accounts)
	}
	if body.Accounts[0].LastLoginAt != 1700000000 {
		t.Errorf("unexpected last_login_at %d", body.Accounts[0].LastLoginAt)
	}
}

func TestListAccountsFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errors.New("db gone")
	h := newTestRouter(repo, &fakeLogin{}, &fakeBot{})

	rec := doRequest(t, h, http.MethodGet, "/api/accounts", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
