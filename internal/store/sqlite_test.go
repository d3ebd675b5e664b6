package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Atmsamma/InstaConnect/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGetAccountUnknownReturnsNil(t *testing.T) {
	repo := newTestStore(t)

	account, err := repo.GetAccount(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if account != nil {
		t.Errorf("expected nil for unknown account, got %+v", account)
	}
}

func TestUpsertAndGetAccount(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	err := repo.UpsertAccount(ctx, &domain.Account{
		Username:    "alice",
		SessionFile: "alice_session.json",
		LastLoginAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	account, err := repo.GetAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if account == nil {
		t.Fatal("expected account")
	}
	if account.SessionFile != "alice_session.json" {
		t.Errorf("session_file = %q", account.SessionFile)
	}
	if !account.LastLoginAt.Equal(now) {
		t.Errorf("last_login_at = %v, want %v", account.LastLoginAt, now)
	}
}

func TestUpsertUpdatesExistingAccount(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	created := time.Unix(1700000000, 0)
	later := created.Add(24 * time.Hour)

	seed := &domain.Account{
		Username: "alice", SessionFile: "alice_session.json",
		LastLoginAt: created, CreatedAt: created, UpdatedAt: created,
	}
	if err := repo.UpsertAccount(ctx, seed); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	seed.LastLoginAt = later
	seed.UpdatedAt = later
	if err := repo.UpsertAccount(ctx, seed); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	account, err := repo.GetAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !account.LastLoginAt.Equal(later) {
		t.Errorf("last_login_at not updated: %v", account.LastLoginAt)
	}

	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("upsert must not duplicate rows, got %d", len(accounts))
	}
}

func TestListAccountsOrdersByRecency(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	for i, name := range []string{"oldest", "middle", "newest"} {
		at := base.Add(time.Duration(i) * time.Hour)
		err := repo.UpsertAccount(ctx, &domain.Account{
			Username: name, SessionFile: name + "_session.json",
			LastLoginAt: at, CreatedAt: at, UpdatedAt: at,
		})
		if err != nil {
			t.Fatalf("upsert %s: %v", name, err)
		}
	}

	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts))
	}
	for i, want := range []string{"newest", "middle", "oldest"} {
		if accounts[i].Username != want {
			t.Errorf("position %d = %q, want %q", i, accounts[i].Username, want)
		}
	}
}

func TestTouchLogin(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	created := time.Unix(1700000000, 0)

	err := repo.UpsertAccount(ctx, &domain.Account{
		Username: "alice", SessionFile: "alice_session.json",
		LastLoginAt: created, CreatedAt: created, UpdatedAt: created,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	later := created.Add(time.Hour)
	if err := repo.TouchLogin(ctx, "alice", later); err != nil {
		t.Fatalf("touch: %v", err)
	}

	account, err := repo.GetAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !account.LastLoginAt.Equal(later) {
		t.Errorf("last_login_at = %v, want %v", account.LastLoginAt, later)
	}
}
