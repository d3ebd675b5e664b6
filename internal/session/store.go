// Package session manages persisted login sessions. A session is an opaque
// credential blob written as {username}_session.json; its presence means the
// account can log in without re-entering a password.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no session file exists.
var ErrNotFound = errors.New("no session file found")

const fileSuffix = "_session.json"

// Store reads and writes session files under a single directory.
type Store struct {
	dir string
}

// NewStore creates a session store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the session file path for an account.
func (s *Store) Path(username string) string {
	return filepath.Join(s.dir, username+fileSuffix)
}

// FileName returns the bare session file name for an account.
func (s *Store) FileName(username string) string {
	return username + fileSuffix
}

// Exists reports whether a session file is present for the account.
func (s *Store) Exists(username string) bool {
	_, err := os.Stat(s.Path(username))
	return err == nil
}

// Load reads the session blob for an account.
func (s *Store) Load(username string) ([]byte, error) {
	state, err := os.ReadFile(s.Path(username))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return state, nil
}

// Save writes the session blob for an account. The file is replaced
// wholesale via a temp-file rename so a crash never leaves a torn blob.
func (s *Store) Save(username string, state []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, username+".session.*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	if _, err := tmp.Write(state); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(username)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Delete removes the session file for an account. Missing files are not an
// error.
func (s *Store) Delete(username string) error {
	if err := os.Remove(s.Path(username)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}

// First returns the username of the first session file found in the store
// directory, or ErrNotFound if there is none.
func (s *Store) First() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+fileSuffix))
	if err != nil {
		return "", fmt.Errorf("scan session directory: %w", err)
	}
	if len(matches) == 0 {
		return "", ErrNotFound
	}
	name := filepath.Base(matches[0])
	return strings.TrimSuffix(name, fileSuffix), nil
}
