package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/goldmark"
)

// Messages produced by chat commands.
type replyMsg struct{ err error }

type loadedMsg struct{ err error }

type historyMsg struct {
	items []parley.ConversationSummary
	err   error
}

type cooldownTickMsg struct{}

// LogoutMsg is emitted after the session was cleared from the chat view.
type LogoutMsg struct{}

const chatHint = "Enter send · Esc stop · Ctrl+N new · Ctrl+B history · Ctrl+L sign out"

// ChatView is the dashboard: the conversation, an input line and a status
// line, with an optional history sidebar.
type ChatView struct {
	ctx        context.Context
	ctrl       *parley.Controller
	sessions   parley.SessionStore
	renderer   *goldmark.Renderer
	styles     Styles
	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	sidebar    Sidebar
	typewriter Typewriter
	notice     string
	width      int
	height     int
	ready      bool
}

// NewChatView creates a ChatView driving ctrl.
func NewChatView(ctx context.Context, ctrl *parley.Controller, sessions parley.SessionStore, theme parley.Theme, typewriter Typewriter) ChatView {
	styles := NewStyles(theme)
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 0
	ti.Focus()
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Accent))
	return ChatView{
		ctx:        ctx,
		ctrl:       ctrl,
		sessions:   sessions,
		renderer:   goldmark.New(theme),
		styles:     styles,
		input:      ti,
		spinner:    sp,
		sidebar:    NewSidebar(styles),
		typewriter: typewriter,
	}
}

// SetSize lays the view out for a body of width × height cells.
func (v ChatView) SetSize(width, height int) ChatView {
	v.width, v.height = width, height
	// input + status + two separators
	vpHeight := max(height-4, 1)
	vpWidth := v.contentWidth()
	if !v.ready {
		v.viewport = viewport.New(vpWidth, vpHeight)
		v.ready = true
	} else {
		v.viewport.Width = vpWidth
		v.viewport.Height = vpHeight
	}
	v.input.Width = max(width-4, 10)
	return v.refresh()
}

// Teardown discards the conversation and any pending work.
func (v ChatView) Teardown() ChatView {
	v.ctrl.Close()
	v.typewriter = v.typewriter.Stop()
	v.sidebar = v.sidebar.Close()
	v.input.Reset()
	v.notice = ""
	return v.refresh()
}

func (v ChatView) contentWidth() int {
	if v.sidebar.Open() {
		return max(v.width-SidebarWidth, 10)
	}
	return max(v.width, 10)
}

func (v ChatView) Update(msg tea.Msg) (ChatView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case replyMsg:
		if parley.IsCanceled(msg.err) {
			return v, nil
		}
		var cmd tea.Cmd
		if msg.err == nil {
			if last, ok := lastAssistant(v.ctrl.Messages()); ok {
				v.typewriter, cmd = v.typewriter.Start(last.ID, last.Text)
			}
		}
		v = v.refresh()
		return v, tea.Batch(cmd, v.cooldownTick())

	case loadedMsg:
		if parley.IsCanceled(msg.err) {
			return v, nil
		}
		return v.refresh(), nil

	case historyMsg:
		v.sidebar = v.sidebar.SetItems(msg.items, msg.err)
		return v, nil

	case cooldownTickMsg:
		v = v.refresh()
		return v, v.cooldownTick()

	case TypewriterTickMsg:
		var cmd tea.Cmd
		v.typewriter, cmd = v.typewriter.Update(msg)
		return v.refresh(), cmd

	case spinner.TickMsg:
		if !v.busy() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v ChatView) handleKey(msg tea.KeyMsg) (ChatView, tea.Cmd) {
	if v.sidebar.Open() {
		switch msg.Type {
		case tea.KeyUp:
			v.sidebar = v.sidebar.Up()
			return v, nil
		case tea.KeyDown:
			v.sidebar = v.sidebar.Down()
			return v, nil
		case tea.KeyEsc, tea.KeyCtrlB:
			v.sidebar = v.sidebar.Close()
			return v.SetSize(v.width, v.height), nil
		case tea.KeyEnter:
			item, ok := v.sidebar.Selected()
			if !ok {
				return v, nil
			}
			return v.load(item.ID)
		}
	}

	switch msg.Type {
	case tea.KeyEnter:
		return v.submit()
	case tea.KeyEsc:
		if v.ctrl.Cancel() {
			v.notice = "Stopped waiting for the reply."
			v = v.refresh()
			return v, v.cooldownTick()
		}
		return v, nil
	case tea.KeyCtrlN:
		v.ctrl.Reset()
		v.typewriter = v.typewriter.Stop()
		v.notice = ""
		return v.refresh(), nil
	case tea.KeyCtrlB:
		v.sidebar = v.sidebar.Toggle()
		v = v.SetSize(v.width, v.height)
		ctrl, ctx := v.ctrl, v.ctx
		return v, func() tea.Msg {
			items, err := ctrl.Conversations(ctx)
			return historyMsg{items: items, err: err}
		}
	case tea.KeyCtrlL:
		v = v.Teardown()
		store := v.sessions
		return v, func() tea.Msg {
			_ = store.Clear()
			return LogoutMsg{}
		}
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v ChatView) submit() (ChatView, tea.Cmd) {
	call, err := v.ctrl.Submit(v.input.Value())
	switch {
	case errors.Is(err, parley.ErrEmptyMessage):
		return v, nil
	case errors.Is(err, parley.ErrAuthRequired):
		return v, func() tea.Msg { return SessionChangedMsg{} }
	case err != nil:
		v.notice = noticeFor(err)
		return v.refresh(), nil
	}
	v.input.Reset()
	v.notice = ""
	v.typewriter = v.typewriter.Stop()
	v = v.refresh()
	ctx := v.ctx
	return v, tea.Batch(v.spinner.Tick, func() tea.Msg {
		return replyMsg{err: call.Do(ctx)}
	})
}

func (v ChatView) load(id string) (ChatView, tea.Cmd) {
	call, err := v.ctrl.LoadConversation(id)
	if errors.Is(err, parley.ErrAuthRequired) {
		return v, func() tea.Msg { return SessionChangedMsg{} }
	}
	if err != nil {
		v.notice = userMessage(err)
		return v.refresh(), nil
	}
	v.sidebar = v.sidebar.Close()
	v.typewriter = v.typewriter.Stop()
	v.notice = ""
	v = v.SetSize(v.width, v.height)
	ctx := v.ctx
	return v, tea.Batch(v.spinner.Tick, func() tea.Msg {
		return loadedMsg{err: call.Do(ctx)}
	})
}

func (v ChatView) busy() bool {
	s := v.ctrl.State()
	return s == parley.StateSending || s == parley.StateLoading
}

// cooldownTick schedules a status refresh while the cooldown runs.
func (v ChatView) cooldownTick() tea.Cmd {
	if v.ctrl.State() != parley.StateCooldown {
		return nil
	}
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return cooldownTickMsg{} })
}

// refresh rebuilds the viewport content from the controller.
func (v ChatView) refresh() ChatView {
	if !v.ready {
		return v
	}
	snap := v.ctrl.Snapshot()
	width := v.viewport.Width

	var blocks []MessageBlock
	for _, m := range snap.Conversation.Messages {
		switch m.Sender {
		case parley.SenderUser:
			blocks = append(blocks, NewUserMessageBlock(m.Text, v.styles))
		case parley.SenderAssistant:
			blocks = append(blocks, NewAssistantBlock(v.typewriter.Visible(m.ID, m.Text), v.renderer, v.styles))
		}
	}
	if snap.Err != nil {
		blocks = append(blocks, NewErrorBlock(snap.Err, v.styles))
	}

	var content string
	if len(blocks) == 0 && snap.State != parley.StateLoading {
		content = v.styles.Muted.Render("Start a conversation by typing a message below.")
	} else {
		parts := make([]string, len(blocks))
		for i, b := range blocks {
			parts[i] = b.View(width)
		}
		content = strings.Join(parts, "\n\n")
	}
	v.viewport.SetContent(content)
	v.viewport.GotoBottom()
	return v
}

func (v ChatView) statusLine() string {
	snap := v.ctrl.Snapshot()
	switch snap.State {
	case parley.StateSending:
		return v.spinner.View() + v.styles.Muted.Render(" Thinking... (Esc to stop)")
	case parley.StateLoading:
		return v.spinner.View() + v.styles.Muted.Render(" Loading conversation...")
	case parley.StateCooldown:
		secs := int(math.Ceil(snap.CooldownRemaining.Seconds()))
		return v.styles.Muted.Render(fmt.Sprintf("Wait %ds before sending again", max(secs, 1)))
	}
	if v.notice != "" {
		return v.styles.Error.Render(v.notice)
	}
	return v.styles.Muted.Render(chatHint)
}

func (v ChatView) View() string {
	if !v.ready {
		return ""
	}
	sep := v.styles.Muted.Render(strings.Repeat("─", max(v.width, 1)))
	main := v.viewport.View()
	if v.sidebar.Open() {
		main = lipgloss.JoinHorizontal(lipgloss.Top,
			v.sidebar.View(v.viewport.Height, v.ctrl.ConversationID()),
			main,
		)
	}
	return main + "\n" + sep + "\n" + v.input.View() + "\n" + sep + "\n" + v.statusLine()
}

func lastAssistant(msgs []parley.Message) (parley.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender == parley.SenderAssistant {
			return msgs[i], true
		}
	}
	return parley.Message{}, false
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, parley.ErrBusy):
		return "Please wait for the current reply."
	case errors.Is(err, parley.ErrCoolingDown):
		return "Please wait a moment before sending again."
	default:
		return userMessage(err)
	}
}
