package domain

import "time"

// Account is a remote account this server has logged in at least once.
// The session blob itself lives on disk; the registry only records that it
// exists and when it was last refreshed.
type Account struct {
	Username    string
	SessionFile string
	LastLoginAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
