package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
	"github.com/mattn/go-runewidth"
)

// SidebarWidth is the number of columns taken by the history sidebar.
const SidebarWidth = 32

// Sidebar lists the user's stored conversations.
type Sidebar struct {
	items   []parley.ConversationSummary
	cursor  int
	open    bool
	loading bool
	err     error
	styles  Styles
}

// NewSidebar creates a closed Sidebar.
func NewSidebar(styles Styles) Sidebar {
	return Sidebar{styles: styles}
}

// Open reports whether the sidebar is shown.
func (s Sidebar) Open() bool { return s.open }

// Toggle opens or closes the sidebar. Opening marks it loading until
// SetItems is called.
func (s Sidebar) Toggle() Sidebar {
	s.open = !s.open
	if s.open {
		s.loading = true
		s.err = nil
	}
	return s
}

// Close hides the sidebar.
func (s Sidebar) Close() Sidebar {
	s.open = false
	return s
}

// SetItems replaces the listed conversations.
func (s Sidebar) SetItems(items []parley.ConversationSummary, err error) Sidebar {
	s.loading = false
	s.err = err
	s.items = items
	if s.cursor >= len(items) {
		s.cursor = max(len(items)-1, 0)
	}
	return s
}

// Up moves the selection up.
func (s Sidebar) Up() Sidebar {
	if s.cursor > 0 {
		s.cursor--
	}
	return s
}

// Down moves the selection down.
func (s Sidebar) Down() Sidebar {
	if s.cursor < len(s.items)-1 {
		s.cursor++
	}
	return s
}

// Selected returns the highlighted conversation.
func (s Sidebar) Selected() (parley.ConversationSummary, bool) {
	if len(s.items) == 0 {
		return parley.ConversationSummary{}, false
	}
	return s.items[s.cursor], true
}

// View renders the sidebar at the given height. activeID marks the
// conversation currently shown.
func (s Sidebar) View(height int, activeID string) string {
	inner := SidebarWidth - 2
	var lines []string
	lines = append(lines, s.styles.Accent.Render("History"))
	switch {
	case s.loading:
		lines = append(lines, s.styles.Muted.Render("Loading..."))
	case s.err != nil:
		lines = append(lines, s.styles.Error.Render(runewidth.Truncate(userMessage(s.err), inner, "…")))
	case len(s.items) == 0:
		lines = append(lines, s.styles.Muted.Render("No conversations yet."))
	}
	for i, item := range s.items {
		if s.loading || s.err != nil {
			break
		}
		marker := "  "
		if item.ID == activeID {
			marker = "* "
		}
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		count := fmt.Sprintf(" (%d)", item.MessageCount)
		title = runewidth.Truncate(title, inner-len(marker)-len(count), "…")
		line := marker + title + count
		if i == s.cursor {
			line = s.styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", s.styles.Muted.Render("↑/↓ select · Enter open · Esc close"))
	return lipgloss.NewStyle().
		Width(SidebarWidth - 1).
		Height(max(height, 1)).
		MaxHeight(max(height, 1)).
		PaddingRight(1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		Render(strings.Join(lines, "\n"))
}
