package bubbletea

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
)

// authResultMsg carries the outcome of a login or registration attempt.
type authResultMsg struct {
	session parley.Session
	err     error
}

// AuthenticatedMsg is emitted after a session was obtained and saved.
type AuthenticatedMsg struct {
	Session parley.Session
}

// field is a labelled text input.
type field struct {
	key   string
	label string
	input textinput.Model
}

func newField(key, label string, secret bool) field {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return field{key: key, label: label, input: ti}
}

// form is the shared state of the login and register views.
type form struct {
	title      string
	fields     []field
	focus      int
	err        string
	submitting bool
	footer     string
	styles     Styles
}

func newForm(title, footer string, styles Styles, fields ...field) form {
	f := form{title: title, footer: footer, fields: fields, styles: styles}
	f.fields[0].input.Focus()
	return f
}

func (f form) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			return fl.input.Value()
		}
	}
	return ""
}

func (f form) setFocus(i int) form {
	n := len(f.fields)
	f.focus = ((i % n) + n) % n
	for j := range f.fields {
		if j == f.focus {
			f.fields[j].input.Focus()
		} else {
			f.fields[j].input.Blur()
		}
	}
	return f
}

func (f form) focusField(key string) form {
	for i, fl := range f.fields {
		if fl.key == key {
			return f.setFocus(i)
		}
	}
	return f
}

func (f form) reset() form {
	for i := range f.fields {
		f.fields[i].input.Reset()
	}
	f.err = ""
	f.submitting = false
	return f.setFocus(0)
}

// update handles navigation keys and text entry. submit reports whether
// Enter was pressed on an idle form.
func (f form) update(msg tea.Msg) (form, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.Type {
		case tea.KeyTab, tea.KeyDown:
			return f.setFocus(f.focus + 1), nil, false
		case tea.KeyShiftTab, tea.KeyUp:
			return f.setFocus(f.focus - 1), nil, false
		case tea.KeyEnter:
			return f, nil, !f.submitting
		}
		if f.submitting {
			return f, nil, false
		}
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd, false
}

// fail records err for display and focuses the offending field.
func (f form) fail(err error) form {
	f.submitting = false
	f.err = userMessage(err)
	var ve *parley.ValidationError
	if errors.As(err, &ve) {
		f = f.focusField(ve.Field)
	}
	return f
}

func (f form) view(width int) string {
	var sb strings.Builder
	sb.WriteString(f.styles.Accent.Render(f.title))
	sb.WriteString("\n\n")
	for i, fl := range f.fields {
		label := f.styles.Label.Render(fl.label)
		if i == f.focus {
			label = f.styles.Focused.Render("› " + fl.label)
		} else {
			label = "  " + label
		}
		sb.WriteString(label)
		sb.WriteString("\n  ")
		fl.input.Width = max(width-4, 10)
		sb.WriteString(fl.input.View())
		sb.WriteString("\n\n")
	}
	switch {
	case f.submitting:
		sb.WriteString(f.styles.Muted.Render("Please wait..."))
	case f.err != "":
		sb.WriteString(f.styles.Error.Render(f.err))
	}
	sb.WriteString("\n\n")
	sb.WriteString(f.styles.Muted.Render(f.footer))
	return sb.String()
}

// saveSession persists s and reports it as an authResultMsg.
func saveSession(store parley.SessionStore, s parley.Session, err error) tea.Msg {
	if err != nil {
		return authResultMsg{err: err}
	}
	if err := store.Save(s); err != nil {
		return authResultMsg{err: err}
	}
	return authResultMsg{session: s}
}

// LoginView is the sign-in form.
type LoginView struct {
	form     form
	auth     parley.Authenticator
	sessions parley.SessionStore
	ctx      context.Context
}

// NewLoginView creates a LoginView.
func NewLoginView(ctx context.Context, auth parley.Authenticator, sessions parley.SessionStore, styles Styles) LoginView {
	return LoginView{
		form: newForm("Sign in", "Tab next field · Enter sign in · Ctrl+R create an account", styles,
			newField("email", "Email", false),
			newField("password", "Password", true),
		),
		auth:     auth,
		sessions: sessions,
		ctx:      ctx,
	}
}

// Reset clears the form.
func (v LoginView) Reset() LoginView {
	v.form = v.form.reset()
	return v
}

func (v LoginView) Update(msg tea.Msg) (LoginView, tea.Cmd) {
	if res, ok := msg.(authResultMsg); ok {
		if res.err != nil {
			v.form = v.form.fail(res.err)
			return v, nil
		}
		v.form = v.form.reset()
		return v, func() tea.Msg { return AuthenticatedMsg{Session: res.session} }
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	v.form, cmd, submit = v.form.update(msg)
	if !submit {
		return v, cmd
	}

	in := parley.LoginForm{
		Email:    strings.TrimSpace(v.form.value("email")),
		Password: v.form.value("password"),
	}
	if err := parley.ValidateLoginForm(in); err != nil {
		v.form = v.form.fail(err)
		return v, nil
	}
	v.form.err = ""
	v.form.submitting = true
	auth, store, ctx := v.auth, v.sessions, v.ctx
	return v, func() tea.Msg {
		s, err := auth.Login(ctx, in.Email, in.Password)
		return saveSession(store, s, err)
	}
}

func (v LoginView) View(width int) string { return v.form.view(width) }

// RegisterView is the account creation form.
type RegisterView struct {
	form     form
	auth     parley.Authenticator
	sessions parley.SessionStore
	ctx      context.Context
}

// NewRegisterView creates a RegisterView.
func NewRegisterView(ctx context.Context, auth parley.Authenticator, sessions parley.SessionStore, styles Styles) RegisterView {
	return RegisterView{
		form: newForm("Create an account", "Tab next field · Enter register · Ctrl+R back to sign in", styles,
			newField("name", "Name", false),
			newField("email", "Email", false),
			newField("password", "Password", true),
			newField("confirm_password", "Confirm password", true),
		),
		auth:     auth,
		sessions: sessions,
		ctx:      ctx,
	}
}

// Reset clears the form.
func (v RegisterView) Reset() RegisterView {
	v.form = v.form.reset()
	return v
}

func (v RegisterView) Update(msg tea.Msg) (RegisterView, tea.Cmd) {
	if res, ok := msg.(authResultMsg); ok {
		if res.err != nil {
			v.form = v.form.fail(res.err)
			return v, nil
		}
		v.form = v.form.reset()
		return v, func() tea.Msg { return AuthenticatedMsg{Session: res.session} }
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	v.form, cmd, submit = v.form.update(msg)
	if !submit {
		return v, cmd
	}

	in := parley.RegistrationForm{
		Name:            strings.TrimSpace(v.form.value("name")),
		Email:           strings.TrimSpace(v.form.value("email")),
		Password:        v.form.value("password"),
		ConfirmPassword: v.form.value("confirm_password"),
	}
	if err := parley.ValidateRegistrationForm(in); err != nil {
		v.form = v.form.fail(err)
		return v, nil
	}
	v.form.err = ""
	v.form.submitting = true
	auth, store, ctx := v.auth, v.sessions, v.ctx
	return v, func() tea.Msg {
		s, err := auth.Register(ctx, in.Name, in.Email, in.Password)
		return saveSession(store, s, err)
	}
}

func (v RegisterView) View(width int) string { return v.form.view(width) }
