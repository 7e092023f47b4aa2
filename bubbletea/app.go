package bubbletea

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
)

// DefaultSettleDelay is how long a view shows the checking placeholder
// before the guard decides.
const DefaultSettleDelay = 100 * time.Millisecond

// AppName is shown in the navigation bar.
const AppName = "parley"

// NavigateMsg requests a view change.
type NavigateMsg struct {
	Path string
}

// SessionChangedMsg signals that the stored session may have changed
// outside the normal flow, e.g. another process signed out.
type SessionChangedMsg struct{}

type guardCheckMsg struct {
	seq int
}

// Config holds the collaborators and settings of an App.
type Config struct {
	Sessions parley.SessionStore
	Auth     parley.Authenticator
	Chat     parley.ChatService
	Theme    parley.Theme

	// Path is the initial view; empty means PathHome.
	Path string

	// Cooldown is the pause enforced after each reply.
	Cooldown time.Duration

	// TypewriterInterval is the delay between reveal steps of a reply. Zero
	// shows replies at once.
	TypewriterInterval time.Duration

	// SettleDelay overrides DefaultSettleDelay when positive.
	SettleDelay time.Duration
}

// App is the root model: a navigation bar over the view selected by the
// current path, gated by a route guard.
type App struct {
	ctx      context.Context
	sessions parley.SessionStore
	guard    *parley.Guard
	settle   time.Duration
	styles   Styles
	spinner  spinner.Model

	path    string
	seq     int
	session *parley.Session

	login    LoginView
	register RegisterView
	chat     ChatView

	width  int
	height int
}

// New creates an App. ctx bounds the requests the views make.
func New(ctx context.Context, cfg Config) App {
	styles := NewStyles(cfg.Theme)
	settle := cfg.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	path := cfg.Path
	if path == "" {
		path = parley.PathHome
	}
	ctrl := parley.NewController(cfg.Chat, cfg.Sessions, parley.WithCooldown(cfg.Cooldown))
	return App{
		ctx:      ctx,
		sessions: cfg.Sessions,
		guard:    parley.NewGuard(cfg.Sessions),
		settle:   settle,
		styles:   styles,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Accent)),
		path:     path,
		login:    NewLoginView(ctx, cfg.Auth, cfg.Sessions, styles),
		register: NewRegisterView(ctx, cfg.Auth, cfg.Sessions, styles),
		chat:     NewChatView(ctx, ctrl, cfg.Sessions, cfg.Theme, NewTypewriter(cfg.TypewriterInterval, DefaultTypewriterStep)),
	}
}

// Path returns the current view path.
func (a App) Path() string { return a.path }

// Status returns the guard status of the current view.
func (a App) Status() parley.GuardStatus { return a.guard.Status() }

func (a App) Init() tea.Cmd {
	path := a.path
	return func() tea.Msg { return NavigateMsg{Path: path} }
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.chat = a.chat.SetSize(a.width, a.bodyHeight())
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			a.chat = a.chat.Teardown()
			return a, tea.Quit
		}
		if a.guard.Status() != parley.GuardShow {
			return a, nil
		}
		return a.handleKey(msg)

	case NavigateMsg:
		return a.navigate(msg.Path)

	case guardCheckMsg:
		if msg.seq != a.seq {
			return a, nil
		}
		return a.evaluate()

	case SessionChangedMsg, AuthenticatedMsg, LogoutMsg:
		if a.guard.Status() == parley.GuardChecking {
			return a, nil
		}
		return a.evaluate()

	case authResultMsg:
		return a.updateView(msg)

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if a.guard.Status() != parley.GuardShow {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)
	}

	// Chat results arrive regardless of the view shown.
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.path {
	case parley.PathLogin:
		if msg.Type == tea.KeyCtrlR {
			return a.navigate(parley.PathRegister)
		}
	case parley.PathRegister:
		if msg.Type == tea.KeyCtrlR {
			return a.navigate(parley.PathLogin)
		}
	}
	return a.updateView(msg)
}

func (a App) updateView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.path {
	case parley.PathLogin:
		a.login, cmd = a.login.Update(msg)
	case parley.PathRegister:
		a.register, cmd = a.register.Update(msg)
	case parley.PathDashboard:
		a.chat, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

// navigate switches to path and schedules the guard check.
func (a App) navigate(path string) (tea.Model, tea.Cmd) {
	if a.path == parley.PathDashboard && path != parley.PathDashboard {
		a.chat = a.chat.Teardown()
	}
	switch path {
	case parley.PathLogin:
		a.login = a.login.Reset()
	case parley.PathRegister:
		a.register = a.register.Reset()
	}
	a.path = path
	a.guard.Begin()
	a.seq++
	seq := a.seq
	return a, tea.Batch(
		a.spinner.Tick,
		tea.Tick(a.settle, func(time.Time) tea.Msg { return guardCheckMsg{seq: seq} }),
	)
}

// evaluate runs the guard for the current path.
func (a App) evaluate() (tea.Model, tea.Cmd) {
	s, err := a.sessions.Get()
	if err != nil {
		s = nil
	}
	a.session = s

	status, target := a.guard.Evaluate(parley.RouteFor(a.path))
	if status == parley.GuardRedirecting {
		return a.navigate(target)
	}
	if a.path == parley.PathHome {
		return a.navigate(parley.PathLogin)
	}
	if a.path == parley.PathDashboard {
		a.chat = a.chat.SetSize(a.width, a.bodyHeight())
	}
	return a, nil
}

func (a App) bodyHeight() int {
	// navigation bar and the blank line under it
	return max(a.height-2, 1)
}

func (a App) navbar() string {
	left := a.styles.Accent.Render(AppName)
	right := a.path
	if a.session.Authenticated() {
		right = a.session.Email + " · " + a.path
	}
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return a.styles.Nav.Width(max(a.width, 1)).Render(" " + left + strings.Repeat(" ", gap) + right + " ")
}

func (a App) View() string {
	if a.width == 0 {
		return "Initializing..."
	}
	var body string
	switch a.guard.Status() {
	case parley.GuardShow:
		body = a.body()
	default:
		body = "  " + a.spinner.View() + a.styles.Muted.Render(" Checking your session...")
	}
	return a.navbar() + "\n\n" + body
}

func (a App) body() string {
	pad := lipgloss.NewStyle().PaddingLeft(2)
	formWidth := min(max(a.width-4, 10), 60)
	switch a.path {
	case parley.PathLogin:
		return pad.Render(a.login.View(formWidth))
	case parley.PathRegister:
		return pad.Render(a.register.View(formWidth))
	case parley.PathDashboard:
		return a.chat.View()
	default:
		return pad.Render(a.styles.Error.Render("Page not found: " + a.path))
	}
}
