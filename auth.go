package parley

import "context"

// Authenticator creates and verifies sessions against an external identity
// provider. Failures are reported as *AuthError. Passwords are passed through
// and never stored.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
}
