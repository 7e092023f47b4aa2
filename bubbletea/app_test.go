package bubbletea_test

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/parley"
	bt "github.com/fwojciec/parley/bubbletea"
	"github.com/fwojciec/parley/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = parley.Session{UID: "u1", Email: "alice@example.com", DisplayName: "Alice", Token: "tok"}

func nopAuth() *mock.Authenticator {
	return &mock.Authenticator{
		LoginFn: func(context.Context, string, string) (parley.Session, error) {
			return parley.Session{}, errors.New("unexpected login")
		},
		RegisterFn: func(context.Context, string, string, string) (parley.Session, error) {
			return parley.Session{}, errors.New("unexpected register")
		},
	}
}

func echoChat(response string) *mock.ChatService {
	return &mock.ChatService{
		SendFn: func(_ context.Context, req parley.ChatRequest) (parley.ChatReply, error) {
			return parley.ChatReply{Response: response, ConversationID: "c1"}, nil
		},
		ConversationsFn: func(context.Context, string) ([]parley.ConversationSummary, error) {
			return nil, nil
		},
		ConversationFn: func(context.Context, string, string) (parley.ConversationHistory, error) {
			return parley.ConversationHistory{}, parley.ErrNotFound
		},
	}
}

func newApp(t *testing.T, cfg bt.Config) bt.App {
	t.Helper()
	if cfg.Sessions == nil {
		cfg.Sessions = mock.NewMemorySessionStore(nil)
	}
	if cfg.Auth == nil {
		cfg.Auth = nopAuth()
	}
	if cfg.Chat == nil {
		cfg.Chat = echoChat("ok")
	}
	cfg.Theme = parley.DefaultTheme()
	cfg.SettleDelay = time.Millisecond
	return bt.New(context.Background(), cfg)
}

func update(t *testing.T, m tea.Model, msg tea.Msg) bt.App {
	t.Helper()
	updated, _ := m.Update(msg)
	app, ok := updated.(bt.App)
	require.True(t, ok)
	return app
}

// settle completes guard checks until the current view is shown.
func settle(t *testing.T, app bt.App) bt.App {
	t.Helper()
	for range 5 {
		if app.Status() == parley.GuardShow {
			return app
		}
		app = update(t, app, bt.GuardCheck(app))
	}
	require.Equal(t, parley.GuardShow, app.Status())
	return app
}

func navigate(t *testing.T, app bt.App, path string) bt.App {
	t.Helper()
	app = update(t, app, tea.WindowSizeMsg{Width: 80, Height: 24})
	app = update(t, app, bt.NavigateMsg{Path: path})
	return settle(t, app)
}

func waitFor(t *testing.T, tm *teatest.TestModel, s string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte(s))
	}, teatest.WithDuration(5*time.Second))
}

func TestApp_Guard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session *parley.Session
		path    string
		want    string
	}{
		{"anonymous dashboard redirects to login", nil, parley.PathDashboard, parley.PathLogin},
		{"anonymous home redirects to login", nil, parley.PathHome, parley.PathLogin},
		{"anonymous login is shown", nil, parley.PathLogin, parley.PathLogin},
		{"anonymous register is shown", nil, parley.PathRegister, parley.PathRegister},
		{"signed in login redirects to dashboard", &alice, parley.PathLogin, parley.PathDashboard},
		{"signed in register redirects to dashboard", &alice, parley.PathRegister, parley.PathDashboard},
		{"signed in home redirects to dashboard", &alice, parley.PathHome, parley.PathDashboard},
		{"signed in dashboard is shown", &alice, parley.PathDashboard, parley.PathDashboard},
		{"anonymous unknown path redirects to login", nil, "/settings", parley.PathLogin},
		{"token-less session counts as signed out", &parley.Session{UID: "u1"}, parley.PathDashboard, parley.PathLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := newApp(t, bt.Config{Sessions: mock.NewMemorySessionStore(tt.session)})
			app = navigate(t, app, tt.path)
			assert.Equal(t, tt.want, app.Path())
			assert.Equal(t, parley.GuardShow, app.Status())
		})
	}
}

func TestApp_CheckingPlaceholder(t *testing.T) {
	t.Parallel()

	app := newApp(t, bt.Config{})
	app = update(t, app, tea.WindowSizeMsg{Width: 80, Height: 24})
	app = update(t, app, bt.NavigateMsg{Path: parley.PathDashboard})

	assert.Equal(t, parley.GuardChecking, app.Status())
	assert.Contains(t, app.View(), "Checking your session...")
	assert.NotContains(t, app.View(), "Type a message")
}

func TestApp_StaleGuardCheckIgnored(t *testing.T) {
	t.Parallel()

	app := newApp(t, bt.Config{})
	app = update(t, app, tea.WindowSizeMsg{Width: 80, Height: 24})
	app = update(t, app, bt.NavigateMsg{Path: parley.PathLogin})
	app = update(t, app, bt.NavigateMsg{Path: parley.PathRegister})
	app = update(t, app, bt.StaleGuardCheck(app))

	assert.Equal(t, parley.GuardChecking, app.Status())
}

func TestApp_SessionChangeRedirects(t *testing.T) {
	t.Parallel()

	store := mock.NewMemorySessionStore(&alice)
	app := newApp(t, bt.Config{Sessions: store})
	app = navigate(t, app, parley.PathDashboard)
	require.Equal(t, parley.PathDashboard, app.Path())

	require.NoError(t, store.Clear())
	app = update(t, app, bt.SessionChangedMsg{})
	app = settle(t, app)

	assert.Equal(t, parley.PathLogin, app.Path())
}

func TestApp_NavbarShowsUser(t *testing.T) {
	t.Parallel()

	app := newApp(t, bt.Config{Sessions: mock.NewMemorySessionStore(&alice)})
	app = navigate(t, app, parley.PathDashboard)

	view := app.View()
	assert.Contains(t, view, bt.AppName)
	assert.Contains(t, view, "alice@example.com")
	assert.Contains(t, view, parley.PathDashboard)
}

func TestApp_LoginFlow(t *testing.T) {
	t.Parallel()

	var gotEmail, gotPassword string
	auth := nopAuth()
	auth.LoginFn = func(_ context.Context, email, password string) (parley.Session, error) {
		gotEmail, gotPassword = email, password
		return alice, nil
	}
	store := mock.NewMemorySessionStore(nil)
	app := newApp(t, bt.Config{
		Sessions: store,
		Auth:     auth,
		Chat:     echoChat("Hello from the assistant"),
		Path:     parley.PathDashboard,
	})

	tm := teatest.NewTestModel(t, app, teatest.WithInitialTermSize(80, 24))
	waitFor(t, tm, "Sign in")

	tm.Type("alice@example.com")
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Type("secret1")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Start a conversation")

	tm.Type("hello")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Hello from the assistant")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(bt.App)
	require.True(t, ok)

	assert.Equal(t, parley.PathDashboard, final.Path())
	assert.Equal(t, "alice@example.com", gotEmail)
	assert.Equal(t, "secret1", gotPassword)
	s, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UID)
}

func TestApp_LoginValidation(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	auth := nopAuth()
	auth.LoginFn = func(context.Context, string, string) (parley.Session, error) {
		calls.Add(1)
		return alice, nil
	}
	app := newApp(t, bt.Config{Auth: auth, Path: parley.PathLogin})

	tm := teatest.NewTestModel(t, app, teatest.WithInitialTermSize(80, 24))
	waitFor(t, tm, "Sign in")

	tm.Type("not-an-email")
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Type("secret1")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Email format is invalid.")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	assert.Zero(t, calls.Load())
}

func TestApp_LoginProviderError(t *testing.T) {
	t.Parallel()

	auth := nopAuth()
	auth.LoginFn = func(context.Context, string, string) (parley.Session, error) {
		return parley.Session{}, &parley.AuthError{Kind: parley.AuthInvalidCredentials}
	}
	store := mock.NewMemorySessionStore(nil)
	app := newApp(t, bt.Config{Sessions: store, Auth: auth, Path: parley.PathLogin})

	tm := teatest.NewTestModel(t, app, teatest.WithInitialTermSize(80, 24))
	waitFor(t, tm, "Sign in")

	tm.Type("alice@example.com")
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Type("wrong-password")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Incorrect email or password.")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	assert.False(t, parley.IsAuthenticated(store))
}

func TestApp_RegisterFlow(t *testing.T) {
	t.Parallel()

	var gotName string
	auth := nopAuth()
	auth.RegisterFn = func(_ context.Context, name, email, password string) (parley.Session, error) {
		gotName = name
		return parley.Session{UID: "u2", Email: email, DisplayName: name, Token: "tok"}, nil
	}
	store := mock.NewMemorySessionStore(nil)
	app := newApp(t, bt.Config{Sessions: store, Auth: auth, Path: parley.PathLogin})

	tm := teatest.NewTestModel(t, app, teatest.WithInitialTermSize(80, 24))
	waitFor(t, tm, "Sign in")
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlR})
	waitFor(t, tm, "Create an account")

	tm.Type("Bob")
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Type("bob@example.com")
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Type("secret1")
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Type("secret2")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Passwords do not match.")

	tm.Send(tea.KeyMsg{Type: tea.KeyBackspace})
	tm.Type("1")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Start a conversation")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	assert.Equal(t, "Bob", gotName)
	assert.True(t, parley.IsAuthenticated(store))
}

func TestApp_Logout(t *testing.T) {
	t.Parallel()

	store := mock.NewMemorySessionStore(&alice)
	app := newApp(t, bt.Config{Sessions: store, Path: parley.PathDashboard})

	tm := teatest.NewTestModel(t, app, teatest.WithInitialTermSize(80, 24))
	waitFor(t, tm, "Start a conversation")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlL})
	waitFor(t, tm, "Sign in")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(bt.App)
	require.True(t, ok)
	assert.Equal(t, parley.PathLogin, final.Path())
	assert.False(t, parley.IsAuthenticated(store))
}

func TestApp_ChatError(t *testing.T) {
	t.Parallel()

	chat := echoChat("")
	chat.SendFn = func(context.Context, parley.ChatRequest) (parley.ChatReply, error) {
		return parley.ChatReply{}, &parley.RemoteError{Message: "Could not reach the chat service."}
	}
	app := newApp(t, bt.Config{
		Sessions: mock.NewMemorySessionStore(&alice),
		Chat:     chat,
		Path:     parley.PathDashboard,
	})

	tm := teatest.NewTestModel(t, app, teatest.WithInitialTermSize(80, 24))
	waitFor(t, tm, "Start a conversation")

	tm.Type("hello")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Could not reach the chat service.")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
}

func TestApp_HistorySidebar(t *testing.T) {
	t.Parallel()

	chat := echoChat("ok")
	chat.ConversationsFn = func(_ context.Context, uid string) ([]parley.ConversationSummary, error) {
		return []parley.ConversationSummary{{ID: "c9", Title: "Trip planning", MessageCount: 2}}, nil
	}
	chat.ConversationFn = func(_ context.Context, uid, id string) (parley.ConversationHistory, error) {
		return parley.ConversationHistory{ID: id, Records: []parley.HistoryRecord{
			{Role: "user", Content: "Where should I go?"},
			{Role: "assistant", Content: "Try the coast."},
		}}, nil
	}
	app := newApp(t, bt.Config{
		Sessions: mock.NewMemorySessionStore(&alice),
		Chat:     chat,
		Path:     parley.PathDashboard,
	})

	tm := teatest.NewTestModel(t, app, teatest.WithInitialTermSize(100, 30))
	waitFor(t, tm, "Start a conversation")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlB})
	waitFor(t, tm, "Trip planning")

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Try the coast.")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
}

func TestApp_Cooldown(t *testing.T) {
	t.Parallel()

	app := newApp(t, bt.Config{
		Sessions: mock.NewMemorySessionStore(&alice),
		Chat:     echoChat("first reply"),
		Path:     parley.PathDashboard,
		Cooldown: 3 * time.Second,
	})

	tm := teatest.NewTestModel(t, app, teatest.WithInitialTermSize(80, 24))
	waitFor(t, tm, "Start a conversation")

	tm.Type("hello")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "before sending again")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
}
