// Package ratelimit throttles authentication attempts before they reach the
// identity provider.
package ratelimit

import (
	"context"
	"errors"

	"github.com/fwojciec/parley"
	"golang.org/x/time/rate"
)

// Default policy: one attempt every two seconds on average, bursts of five.
const (
	DefaultRate  = rate.Limit(0.5)
	DefaultBurst = 5
)

var errThrottled = errors.New("client-side attempt limit reached")

// Interface compliance check.
var _ parley.Authenticator = (*Authenticator)(nil)

// Authenticator wraps a parley.Authenticator with a token bucket shared by
// Register and Login. An attempt made with an empty bucket fails with a
// rate-limited *parley.AuthError without contacting the provider.
type Authenticator struct {
	next    parley.Authenticator
	limiter *rate.Limiter
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLimit sets the refill rate and burst size.
func WithLimit(r rate.Limit, burst int) Option {
	return func(a *Authenticator) { a.limiter = rate.NewLimiter(r, burst) }
}

// New wraps next with the default policy.
func New(next parley.Authenticator, opts ...Option) *Authenticator {
	a := &Authenticator{
		next:    next,
		limiter: rate.NewLimiter(DefaultRate, DefaultBurst),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Register delegates to the wrapped Authenticator when a token is available.
func (a *Authenticator) Register(ctx context.Context, name, email, password string) (parley.Session, error) {
	if !a.limiter.Allow() {
		return parley.Session{}, &parley.AuthError{Kind: parley.AuthRateLimited, Err: errThrottled}
	}
	return a.next.Register(ctx, name, email, password)
}

// Login delegates to the wrapped Authenticator when a token is available.
func (a *Authenticator) Login(ctx context.Context, email, password string) (parley.Session, error) {
	if !a.limiter.Allow() {
		return parley.Session{}, &parley.AuthError{Kind: parley.AuthRateLimited, Err: errThrottled}
	}
	return a.next.Login(ctx, email, password)
}
