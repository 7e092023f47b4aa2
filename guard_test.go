package parley_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/mock"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	assert.Equal(t, parley.Render, parley.Decide(true, true))
	assert.Equal(t, parley.RedirectLogin, parley.Decide(true, false))
	assert.Equal(t, parley.RedirectDefault, parley.Decide(false, true))
	assert.Equal(t, parley.Render, parley.Decide(false, false))
}

func TestRouteFor(t *testing.T) {
	t.Parallel()

	assert.True(t, parley.RouteFor(parley.PathDashboard).RequiresAuth)
	assert.False(t, parley.RouteFor(parley.PathLogin).RequiresAuth)
	assert.False(t, parley.RouteFor(parley.PathRegister).RequiresAuth)
	assert.True(t, parley.RouteFor("/settings").RequiresAuth)
}

func TestGuard_Evaluate(t *testing.T) {
	t.Parallel()

	signedIn := &parley.Session{UID: "u1", Token: "tok"}

	tests := []struct {
		name       string
		session    *parley.Session
		path       string
		wantStatus parley.GuardStatus
		wantTarget string
	}{
		{"protected without session", nil, parley.PathDashboard, parley.GuardRedirecting, parley.PathLogin},
		{"protected with session", signedIn, parley.PathDashboard, parley.GuardShow, ""},
		{"login with session", signedIn, parley.PathLogin, parley.GuardRedirecting, parley.PathDashboard},
		{"register with session", signedIn, parley.PathRegister, parley.GuardRedirecting, parley.PathDashboard},
		{"login without session", nil, parley.PathLogin, parley.GuardShow, ""},
		{"session without token", &parley.Session{UID: "u1"}, parley.PathDashboard, parley.GuardRedirecting, parley.PathLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := parley.NewGuard(mock.NewMemorySessionStore(tt.session))
			assert.Equal(t, parley.GuardChecking, g.Status())
			status, target := g.Evaluate(parley.RouteFor(tt.path))
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantTarget, target)
			assert.Equal(t, tt.wantStatus, g.Status())
		})
	}
}

func TestGuard_ReadErrorRedirectsToLogin(t *testing.T) {
	t.Parallel()

	store := &mock.SessionStore{
		GetFn: func() (*parley.Session, error) { return nil, errors.New("corrupt") },
	}
	g := parley.NewGuard(store, parley.WithLoginPath("/signin"))
	status, target := g.Evaluate(parley.RouteFor(parley.PathDashboard))
	assert.Equal(t, parley.GuardRedirecting, status)
	assert.Equal(t, "/signin", target)
}

func TestGuard_ReevaluatesOnSessionChange(t *testing.T) {
	t.Parallel()

	store := mock.NewMemorySessionStore(&parley.Session{UID: "u1", Token: "tok"})
	g := parley.NewGuard(store, parley.WithDefaultPath("/home"))

	status, _ := g.Evaluate(parley.RouteFor(parley.PathDashboard))
	assert.Equal(t, parley.GuardShow, status)

	assert.NoError(t, store.Clear())
	g.Begin()
	assert.Equal(t, parley.GuardChecking, g.Status())
	status, target := g.Evaluate(parley.RouteFor(parley.PathDashboard))
	assert.Equal(t, parley.GuardRedirecting, status)
	assert.Equal(t, parley.PathLogin, target)

	assert.NoError(t, store.Save(parley.Session{UID: "u1", Token: "tok"}))
	status, target = g.Evaluate(parley.RouteFor(parley.PathLogin))
	assert.Equal(t, parley.GuardRedirecting, status)
	assert.Equal(t, "/home", target)
}

func TestGuardStatus_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "checking", parley.GuardChecking.String())
	assert.Equal(t, "redirecting", parley.GuardRedirecting.String())
	assert.Equal(t, "show", parley.GuardShow.String())
}
