package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Atmsamma/InstaConnect/internal/domain"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency between the HTTP handlers.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS accounts (
		username TEXT PRIMARY KEY,
		session_file TEXT NOT NULL,
		last_login_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_last_login ON accounts(last_login_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetAccount retrieves an account by username.
func (s *SQLiteStore) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	query := `
		SELECT username, session_file, last_login_at, created_at, updated_at
		FROM accounts WHERE username = ?`

	row := s.db.QueryRowContext(ctx, query, username)

	var account domain.Account
	var lastLogin, createdAt, updatedAt int64

	err := row.Scan(&account.Username, &account.SessionFile, &lastLogin, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account row: %w", err)
	}

	account.LastLoginAt = time.Unix(lastLogin, 0)
	account.CreatedAt = time.Unix(createdAt, 0)
	account.UpdatedAt = time.Unix(updatedAt, 0)

	return &account, nil
}

// UpsertAccount creates or updates an account record.
func (s *SQLiteStore) UpsertAccount(ctx context.Context, account *domain.Account) error {
	query := `
	INSERT INTO accounts (username, session_file, last_login_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(username) DO UPDATE SET
		session_file = excluded.session_file,
		last_login_at = excluded.last_login_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		account.Username, account.SessionFile,
		account.LastLoginAt.Unix(),
		account.CreatedAt.Unix(), account.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// ListAccounts returns all known accounts, most recently logged in first.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	query := `
		SELECT username, session_file, last_login_at, created_at, updated_at
		FROM accounts ORDER BY last_login_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var account domain.Account
		var lastLogin, createdAt, updatedAt int64
		if err := rows.Scan(&account.Username, &account.SessionFile, &lastLogin, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		account.LastLoginAt = time.Unix(lastLogin, 0)
		account.CreatedAt = time.Unix(createdAt, 0)
		account.UpdatedAt = time.Unix(updatedAt, 0)
		accounts = append(accounts, &account)
	}
	return accounts, rows.Err()
}

// TouchLogin updates the last_login_at timestamp for an account.
func (s *SQLiteStore) TouchLogin(ctx context.Context, username string, at time.Time) error {
	query := `UPDATE accounts SET last_login_at = ?, updated_at = ? WHERE username = ?`
	_, err := s.db.ExecContext(ctx, query, at.Unix(), time.Now().Unix(), username)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
