package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatService_Send(t *testing.T) {
	t.Parallel()

	t.Run("delegates to SendFn", func(t *testing.T) {
		t.Parallel()
		var got parley.ChatRequest
		c := mock.ChatService{
			SendFn: func(_ context.Context, req parley.ChatRequest) (parley.ChatReply, error) {
				got = req
				return parley.ChatReply{Response: "hi"}, nil
			},
		}
		reply, err := c.Send(context.Background(), parley.ChatRequest{UID: "u1", Message: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hi", reply.Response)
		assert.Equal(t, "u1", got.UID)
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("api error")
		c := mock.ChatService{
			SendFn: func(context.Context, parley.ChatRequest) (parley.ChatReply, error) {
				return parley.ChatReply{}, wantErr
			},
		}
		_, err := c.Send(context.Background(), parley.ChatRequest{})
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("panics when SendFn not set", func(t *testing.T) {
		t.Parallel()
		c := mock.ChatService{}
		assert.Panics(t, func() {
			_, _ = c.Send(context.Background(), parley.ChatRequest{})
		})
	})
}

func TestSessionStore_Delegates(t *testing.T) {
	t.Parallel()

	var saved parley.Session
	s := mock.SessionStore{
		SaveFn:  func(sess parley.Session) error { saved = sess; return nil },
		GetFn:   func() (*parley.Session, error) { return &saved, nil },
		ClearFn: func() error { saved = parley.Session{}; return nil },
	}

	require.NoError(t, s.Save(parley.Session{UID: "u1", Token: "t"}))
	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)
	require.NoError(t, s.Clear())
	assert.Empty(t, saved.UID)
}

func TestMemorySessionStore(t *testing.T) {
	t.Parallel()

	t.Run("empty store returns nil", func(t *testing.T) {
		t.Parallel()
		s := mock.NewMemorySessionStore(nil)
		got, err := s.Get()
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.False(t, parley.IsAuthenticated(s))
	})

	t.Run("save then clear", func(t *testing.T) {
		t.Parallel()
		s := mock.NewMemorySessionStore(nil)
		require.NoError(t, s.Save(parley.Session{UID: "u1", Token: "tok"}))
		assert.True(t, parley.IsAuthenticated(s))
		require.NoError(t, s.Clear())
		assert.False(t, parley.IsAuthenticated(s))
	})

	t.Run("returned session is a copy", func(t *testing.T) {
		t.Parallel()
		s := mock.NewMemorySessionStore(&parley.Session{UID: "u1", Token: "tok"})
		got, err := s.Get()
		require.NoError(t, err)
		got.Token = ""
		assert.True(t, parley.IsAuthenticated(s))
	})
}
