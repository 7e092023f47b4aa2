package bubbletea

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/goldmark"
)

// MessageBlock is a renderable element in the conversation. View takes a
// width so the chat view controls layout and blocks are testable in
// isolation.
type MessageBlock interface {
	View(width int) string
}

var (
	_ MessageBlock = (*UserMessageBlock)(nil)
	_ MessageBlock = (*AssistantBlock)(nil)
	_ MessageBlock = (*ErrorBlock)(nil)
)

// UserMessageBlock renders a user message with a "> " prefix.
type UserMessageBlock struct {
	text   string
	styles Styles
}

// NewUserMessageBlock creates a UserMessageBlock.
func NewUserMessageBlock(text string, styles Styles) *UserMessageBlock {
	return &UserMessageBlock{text: text, styles: styles}
}

func (b *UserMessageBlock) View(width int) string {
	content := b.styles.UserMsg.Render("> ") + b.text
	return b.styles.UserBg.Width(width).Render(content)
}

// AssistantBlock renders an assistant reply as markdown.
type AssistantBlock struct {
	text     string
	renderer *goldmark.Renderer
	styles   Styles
}

// NewAssistantBlock creates an AssistantBlock. text may be a partially
// revealed reply.
func NewAssistantBlock(text string, renderer *goldmark.Renderer, styles Styles) *AssistantBlock {
	return &AssistantBlock{text: text, renderer: renderer, styles: styles}
}

func (b *AssistantBlock) View(width int) string {
	src := b.text
	if hasUnclosedFence(src) {
		// Close the fence for rendering so a partial reveal displays safely.
		src += "\n```"
	}
	label := b.styles.Assistant.Render("parley")
	body := b.renderer.Render(src, max(width-2, 10))
	return label + "\n" + indent(body, "  ")
}

// ErrorBlock renders a failed request.
type ErrorBlock struct {
	err    error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(err error, styles Styles) *ErrorBlock {
	return &ErrorBlock{err: err, styles: styles}
}

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render(fmt.Sprintf("Error: %s", userMessage(b.err)))
	return lipgloss.NewStyle().Width(width).Render(content)
}

// hasUnclosedFence reports whether s has an odd number of "```" markers.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// userMessage returns the text shown for err. Typed domain errors carry
// user-facing messages; anything else gets a generic one.
func userMessage(err error) string {
	var (
		ve *parley.ValidationError
		ae *parley.AuthError
		re *parley.RemoteError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ae):
		return ae.Error()
	case errors.As(err, &re):
		return re.Message
	case errors.Is(err, parley.ErrNotFound):
		return "Conversation not found."
	case errors.Is(err, parley.ErrAuthRequired):
		return "Please sign in again."
	default:
		return "Something went wrong. Please try again."
	}
}
