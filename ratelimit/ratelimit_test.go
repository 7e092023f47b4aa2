package ratelimit_test

import (
	"context"
	"testing"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/mock"
	"github.com/fwojciec/parley/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func countingAuth(calls *int) *mock.Authenticator {
	return &mock.Authenticator{
		LoginFn: func(context.Context, string, string) (parley.Session, error) {
			*calls++
			return parley.Session{UID: "u1", Token: "tok"}, nil
		},
		RegisterFn: func(context.Context, string, string, string) (parley.Session, error) {
			*calls++
			return parley.Session{UID: "u2", Token: "tok"}, nil
		},
	}
}

func TestAuthenticator_AllowsBurst(t *testing.T) {
	t.Parallel()

	var calls int
	auth := ratelimit.New(countingAuth(&calls), ratelimit.WithLimit(rate.Limit(0.001), 2))

	s, err := auth.Login(context.Background(), "a@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UID)

	s, err = auth.Register(context.Background(), "Ann", "a@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u2", s.UID)
	assert.Equal(t, 2, calls)
}

func TestAuthenticator_RejectsWhenExhausted(t *testing.T) {
	t.Parallel()

	var calls int
	auth := ratelimit.New(countingAuth(&calls), ratelimit.WithLimit(rate.Limit(0.001), 1))

	_, err := auth.Login(context.Background(), "a@b.co", "secret1")
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), "a@b.co", "secret1")
	require.Error(t, err)
	assert.Equal(t, parley.AuthRateLimited, parley.AuthErrorKindOf(err))
	assert.Equal(t, parley.AuthRateLimited.Message(), err.Error())

	_, err = auth.Register(context.Background(), "Ann", "a@b.co", "secret1")
	assert.ErrorIs(t, err, parley.ErrProvider)
	assert.Equal(t, 1, calls)
}

func TestAuthenticator_Unlimited(t *testing.T) {
	t.Parallel()

	var calls int
	auth := ratelimit.New(countingAuth(&calls), ratelimit.WithLimit(rate.Inf, 0))
	for range 20 {
		_, err := auth.Login(context.Background(), "a@b.co", "secret1")
		require.NoError(t, err)
	}
	assert.Equal(t, 20, calls)
}
