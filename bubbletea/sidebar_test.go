package bubbletea_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/fwojciec/parley"
	bt "github.com/fwojciec/parley/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidebar(t *testing.T) {
	t.Parallel()

	items := []parley.ConversationSummary{
		{ID: "a", Title: "First chat", MessageCount: 2},
		{ID: "b", Title: strings.Repeat("very long title ", 5), MessageCount: 12},
		{ID: "c", MessageCount: 1},
	}
	styles := bt.NewStyles(parley.DefaultTheme())

	t.Run("toggle shows loading until items arrive", func(t *testing.T) {
		t.Parallel()
		s := bt.NewSidebar(styles).Toggle()
		assert.True(t, s.Open())
		assert.Contains(t, stripANSI(s.View(10, "")), "Loading...")

		s = s.SetItems(items, nil)
		out := stripANSI(s.View(10, "a"))
		assert.Contains(t, out, "* First chat (2)")
		assert.Contains(t, out, "Untitled (1)")
		assert.Contains(t, out, "…")
	})

	t.Run("selection is clamped", func(t *testing.T) {
		t.Parallel()
		s := bt.NewSidebar(styles).Toggle().SetItems(items, nil)
		s = s.Up()
		got, ok := s.Selected()
		require.True(t, ok)
		assert.Equal(t, "a", got.ID)

		s = s.Down().Down().Down()
		got, ok = s.Selected()
		require.True(t, ok)
		assert.Equal(t, "c", got.ID)
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()
		s := bt.NewSidebar(styles).Toggle().SetItems(nil, nil)
		_, ok := s.Selected()
		assert.False(t, ok)
		assert.Contains(t, stripANSI(s.View(10, "")), "No conversations yet.")
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		s := bt.NewSidebar(styles).Toggle().SetItems(nil, errors.New("boom"))
		assert.Contains(t, stripANSI(s.View(10, "")), "Something went wrong")
	})

	t.Run("close", func(t *testing.T) {
		t.Parallel()
		s := bt.NewSidebar(styles).Toggle().Close()
		assert.False(t, s.Open())
	})
}
