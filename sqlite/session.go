package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fwojciec/parley"
)

var _ parley.SessionStore = (*SessionStore)(nil)

// SessionStore is a parley.SessionStore holding a single session row.
type SessionStore struct {
	db *DB
}

// NewSessionStore returns a session store backed by db.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Save replaces the stored session.
func (s *SessionStore) Save(sess parley.Session) error {
	query := `
	INSERT INTO session (id, uid, email, display_name, email_verified, token, created_at, last_sign_in_at)
	VALUES (1, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		uid = excluded.uid,
		email = excluded.email,
		display_name = excluded.display_name,
		email_verified = excluded.email_verified,
		token = excluded.token,
		created_at = excluded.created_at,
		last_sign_in_at = excluded.last_sign_in_at`

	_, err := s.db.db.ExecContext(context.Background(), query,
		sess.UID, sess.Email, sess.DisplayName, sess.EmailVerified, sess.Token,
		toUnix(sess.CreatedAt), toUnix(sess.LastSignInAt),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns the stored session, or (nil, nil) when none is stored.
func (s *SessionStore) Get() (*parley.Session, error) {
	query := `
		SELECT uid, email, display_name, email_verified, token, created_at, last_sign_in_at
		FROM session WHERE id = 1`

	var sess parley.Session
	var createdAt, lastSignIn int64
	err := s.db.db.QueryRowContext(context.Background(), query).Scan(
		&sess.UID, &sess.Email, &sess.DisplayName, &sess.EmailVerified,
		&sess.Token, &createdAt, &lastSignIn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	sess.CreatedAt = fromUnix(createdAt)
	sess.LastSignInAt = fromUnix(lastSignIn)
	return &sess, nil
}

// Clear deletes the stored session.
func (s *SessionStore) Clear() error {
	if _, err := s.db.db.ExecContext(context.Background(), `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
