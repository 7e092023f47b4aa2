package parley_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/mock"
	"github.com/stretchr/testify/assert"
)

func TestSession_Authenticated(t *testing.T) {
	t.Parallel()

	var nilSession *parley.Session
	assert.False(t, nilSession.Authenticated())
	assert.False(t, (&parley.Session{UID: "u1"}).Authenticated())
	assert.False(t, (&parley.Session{Token: "tok"}).Authenticated())
	assert.True(t, (&parley.Session{UID: "u1", Token: "tok"}).Authenticated())
}

func TestSession_Name(t *testing.T) {
	t.Parallel()

	var nilSession *parley.Session
	assert.Empty(t, nilSession.Name())
	assert.Equal(t, "a@b.co", (&parley.Session{Email: "a@b.co"}).Name())
	assert.Equal(t, "Ann", (&parley.Session{Email: "a@b.co", DisplayName: "Ann"}).Name())
}

func TestIsAuthenticated(t *testing.T) {
	t.Parallel()

	t.Run("read error counts as signed out", func(t *testing.T) {
		t.Parallel()
		store := &mock.SessionStore{
			GetFn: func() (*parley.Session, error) {
				return &parley.Session{UID: "u1", Token: "tok"}, errors.New("disk gone")
			},
		}
		assert.False(t, parley.IsAuthenticated(store))
	})

	t.Run("nop store is empty", func(t *testing.T) {
		t.Parallel()
		store := parley.NopSessionStore{}
		assert.NoError(t, store.Save(parley.Session{UID: "u1", Token: "tok"}))
		assert.False(t, parley.IsAuthenticated(store))
		assert.NoError(t, store.Clear())
	})
}
