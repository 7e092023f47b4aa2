package parley

import "time"

// Session is the authenticated identity and token held client-side.
type Session struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
	Token         string
	CreatedAt     time.Time
	LastSignInAt  time.Time
}

// Authenticated reports whether the session carries both an identity and a
// token. A nil session is not authenticated.
func (s *Session) Authenticated() bool {
	return s != nil && s.UID != "" && s.Token != ""
}

// Name returns the display name, falling back to the email address.
func (s *Session) Name() string {
	if s == nil {
		return ""
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Email
}

// SessionStore persists the current Session across restarts.
//
// Get returns (nil, nil) when no session is stored. Implementations backed by
// storage that is unavailable must behave as an empty store rather than fail.
type SessionStore interface {
	Save(s Session) error
	Get() (*Session, error)
	Clear() error
}

// IsAuthenticated reports whether store holds an authenticated session.
// Read errors count as unauthenticated.
func IsAuthenticated(store SessionStore) bool {
	s, err := store.Get()
	if err != nil {
		return false
	}
	return s.Authenticated()
}

// NopSessionStore is a SessionStore with no durable storage behind it.
type NopSessionStore struct{}

var _ SessionStore = NopSessionStore{}

func (NopSessionStore) Save(Session) error { return nil }

func (NopSessionStore) Get() (*Session, error) { return nil, nil }

func (NopSessionStore) Clear() error { return nil }
