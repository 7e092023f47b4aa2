package bubbletea

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rivo/uniseg"
)

// Typewriter defaults.
const (
	DefaultTypewriterInterval = 15 * time.Millisecond
	DefaultTypewriterStep     = 3
)

// TypewriterTickMsg advances the reveal started with the same generation.
type TypewriterTickMsg struct {
	gen int
}

// Typewriter progressively reveals a reply a few grapheme clusters per tick.
// Starting or stopping bumps the generation so ticks from an older reveal
// are dropped.
type Typewriter struct {
	interval time.Duration
	step     int
	gen      int
	id       string
	text     string
	shown    int // byte offset into text
	active   bool
}

// NewTypewriter creates a Typewriter. A non-positive interval disables the
// effect and replies are shown at once.
func NewTypewriter(interval time.Duration, step int) Typewriter {
	if step <= 0 {
		step = DefaultTypewriterStep
	}
	return Typewriter{interval: interval, step: step}
}

// Start begins revealing text for message id.
func (t Typewriter) Start(id, text string) (Typewriter, tea.Cmd) {
	t.gen++
	if t.interval <= 0 || text == "" {
		t.active = false
		return t, nil
	}
	t.id = id
	t.text = text
	t.shown = 0
	t.active = true
	return t, t.tick()
}

// Stop ends the reveal; the full text is shown from now on.
func (t Typewriter) Stop() Typewriter {
	t.gen++
	t.active = false
	return t
}

// Active reports whether a reveal is in progress.
func (t Typewriter) Active() bool { return t.active }

// Update advances the reveal on a matching tick.
func (t Typewriter) Update(msg TypewriterTickMsg) (Typewriter, tea.Cmd) {
	if !t.active || msg.gen != t.gen {
		return t, nil
	}
	rest := t.text[t.shown:]
	state := -1
	for i := 0; i < t.step && rest != ""; i++ {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		t.shown += len(cluster)
	}
	if t.shown >= len(t.text) {
		t.active = false
		return t, nil
	}
	return t, t.tick()
}

// Visible returns the part of full to display for message id.
func (t Typewriter) Visible(id, full string) string {
	if !t.active || id != t.id || full != t.text {
		return full
	}
	return full[:t.shown]
}

func (t Typewriter) tick() tea.Cmd {
	gen := t.gen
	return tea.Tick(t.interval, func(time.Time) tea.Msg {
		return TypewriterTickMsg{gen: gen}
	})
}
