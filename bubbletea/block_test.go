package bubbletea_test

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/fwojciec/parley"
	bt "github.com/fwojciec/parley/bubbletea"
	"github.com/fwojciec/parley/goldmark"
	"github.com/stretchr/testify/assert"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiRe.ReplaceAllString(s, "") }

func TestUserMessageBlock_View(t *testing.T) {
	t.Parallel()

	b := bt.NewUserMessageBlock("hello there", bt.NewStyles(parley.DefaultTheme()))
	assert.Contains(t, stripANSI(b.View(40)), "> hello there")
}

func TestAssistantBlock_View(t *testing.T) {
	t.Parallel()

	theme := parley.DefaultTheme()
	styles := bt.NewStyles(theme)
	r := goldmark.New(theme)

	t.Run("renders markdown", func(t *testing.T) {
		t.Parallel()
		out := stripANSI(bt.NewAssistantBlock("# Title\n\n- one\n- two", r, styles).View(60))
		assert.Contains(t, out, "Title")
		assert.Contains(t, out, "• one")
		assert.NotContains(t, out, "# Title")
	})

	t.Run("partial code fence is closed for display", func(t *testing.T) {
		t.Parallel()
		out := stripANSI(bt.NewAssistantBlock("Code:\n\n```go\nfunc main() {", r, styles).View(60))
		assert.Contains(t, out, "func main() {")
		assert.NotContains(t, out, "```")
	})
}

func TestErrorBlock_View(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(parley.DefaultTheme())
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"remote", &parley.RemoteError{Message: "The chat service reported an error."}, "The chat service reported an error."},
		{"auth", &parley.AuthError{Kind: parley.AuthRateLimited}, parley.AuthRateLimited.Message()},
		{"validation", &parley.ValidationError{Field: "email", Message: "Email format is invalid."}, "Email format is invalid."},
		{"not found", fmt.Errorf("chatapi: %w", parley.ErrNotFound), "Conversation not found."},
		{"other", errors.New("socket: broken pipe"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := stripANSI(bt.NewErrorBlock(tt.err, styles).View(80))
			assert.Contains(t, out, "Error: "+tt.want)
		})
	}
}
