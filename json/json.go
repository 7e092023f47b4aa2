// Package json persists the parley session as a JSON file.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/parley"
)

const version = 1

// envelope is the v1 wire format for a persisted session.
type envelope struct {
	Version int        `json:"version"`
	Session sessionDTO `json:"session"`
}

type sessionDTO struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	Token         string    `json:"token"`
	CreatedAt     time.Time `json:"created_at"`
	LastSignInAt  time.Time `json:"last_sign_in_at"`
}

// MarshalSession serializes a Session to JSON in v1 envelope format.
func MarshalSession(s parley.Session) ([]byte, error) {
	return json.MarshalIndent(envelope{
		Version: version,
		Session: sessionDTO{
			UID:           s.UID,
			Email:         s.Email,
			DisplayName:   s.DisplayName,
			EmailVerified: s.EmailVerified,
			Token:         s.Token,
			CreatedAt:     s.CreatedAt,
			LastSignInAt:  s.LastSignInAt,
		},
	}, "", "  ")
}

// UnmarshalSession deserializes a Session from JSON in v1 envelope format.
func UnmarshalSession(data []byte) (parley.Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return parley.Session{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != version {
		return parley.Session{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	d := env.Session
	return parley.Session{
		UID:           d.UID,
		Email:         d.Email,
		DisplayName:   d.DisplayName,
		EmailVerified: d.EmailVerified,
		Token:         d.Token,
		CreatedAt:     d.CreatedAt,
		LastSignInAt:  d.LastSignInAt,
	}, nil
}

var _ parley.SessionStore = (*SessionStore)(nil)

// SessionStore is a parley.SessionStore backed by a single JSON file.
// A store with an empty path has no durable storage: Save and Clear do
// nothing and Get reports no session.
type SessionStore struct {
	path   string
	logger *slog.Logger
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithLogger sets the logger for recoverable storage problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *SessionStore) { s.logger = l }
}

// NewSessionStore creates a store persisting to path.
func NewSessionStore(path string, opts ...Option) *SessionStore {
	s := &SessionStore{
		path:   path,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path returns the session file location.
func (s *SessionStore) Path() string { return s.path }

// Save writes the session atomically, creating parent directories as needed.
func (s *SessionStore) Save(sess parley.Session) error {
	if s.path == "" {
		s.logger.Warn("session store unavailable, session not persisted")
		return nil
	}
	data, err := MarshalSession(sess)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Get reads the stored session. It returns (nil, nil) when no file exists.
func (s *SessionStore) Get() (*parley.Session, error) {
	if s.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	sess, err := UnmarshalSession(data)
	if err != nil {
		s.logger.Warn("session file unreadable", "path", s.path, "error", err)
		return nil, fmt.Errorf("session file %s: %w", s.path, err)
	}
	return &sess, nil
}

// Clear removes the session file. Removing a missing file is not an error.
func (s *SessionStore) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
