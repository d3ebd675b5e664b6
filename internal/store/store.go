// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/Atmsamma/InstaConnect/internal/domain"
)

// Repository defines the interface for persisting account registry data.
// The registry records which accounts have logged in and when; the session
// blobs themselves live on disk, owned by the watcher process.
type Repository interface {
	// GetAccount retrieves an account by username. Returns nil, nil when
	// the account is unknown.
	GetAccount(ctx context.Context, username string) (*domain.Account, error)

	// UpsertAccount creates or updates an account record.
	UpsertAccount(ctx context.Context, account *domain.Account) error

	// ListAccounts returns all known accounts, most recently logged in first.
	ListAccounts(ctx context.Context) ([]*domain.Account, error)

	// TouchLogin updates the last_login_at timestamp for an account.
	TouchLogin(ctx context.Context, username string, at time.Time) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
