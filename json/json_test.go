package json_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/parley"
	parleyjson "github.com/fwojciec/parley/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() parley.Session {
	return parley.Session{
		UID:           "u1",
		Email:         "ann@example.com",
		DisplayName:   "Ann",
		EmailVerified: true,
		Token:         "id-token",
		CreatedAt:     time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC),
		LastSignInAt:  time.Date(2026, 2, 18, 12, 5, 0, 0, time.UTC),
	}
}

func TestMarshalSession_RoundTrip(t *testing.T) {
	t.Parallel()

	data, err := parleyjson.MarshalSession(testSession())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": 1`)

	got, err := parleyjson.UnmarshalSession(data)
	require.NoError(t, err)
	want := testSession()
	assert.Equal(t, want.UID, got.UID)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.DisplayName, got.DisplayName)
	assert.True(t, got.EmailVerified)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, want.LastSignInAt.Equal(got.LastSignInAt))
}

func TestUnmarshalSession_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unsupported version", func(t *testing.T) {
		t.Parallel()
		_, err := parleyjson.UnmarshalSession([]byte(`{"version":2,"session":{}}`))
		assert.ErrorContains(t, err, "unsupported envelope version: 2")
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		_, err := parleyjson.UnmarshalSession([]byte(`{not json`))
		assert.ErrorContains(t, err, "unmarshal envelope")
	})
}

func TestSessionStore_SaveGetClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := parleyjson.NewSessionStore(path)

	got, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, parley.IsAuthenticated(store))

	require.NoError(t, store.Save(testSession()))
	assert.True(t, parley.IsAuthenticated(store))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err = store.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ann@example.com", got.Email)

	require.NoError(t, store.Clear())
	got, err = store.Get()
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Clear())
}

func TestSessionStore_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, parleyjson.NewSessionStore(path).Save(testSession()))

	got, err := parleyjson.NewSessionStore(path).Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UID)
}

func TestSessionStore_Unavailable(t *testing.T) {
	t.Parallel()

	store := parleyjson.NewSessionStore("")
	assert.NoError(t, store.Save(testSession()))
	got, err := store.Get()
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, store.Clear())
	assert.False(t, parley.IsAuthenticated(store))
}

func TestSessionStore_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	store := parleyjson.NewSessionStore(path)
	_, err := store.Get()
	assert.ErrorContains(t, err, path)
	assert.False(t, parley.IsAuthenticated(store))

	require.NoError(t, store.Save(testSession()))
	assert.True(t, parley.IsAuthenticated(store))
}
