// Package goldmark renders assistant replies, which arrive as markdown, to
// ANSI-styled terminal text. Parsing is done by goldmark with the
// strikethrough and linkify extensions; styling uses lipgloss.
package goldmark

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

const defaultWidth = 80

// Renderer renders markdown with a fixed theme.
type Renderer struct {
	parser parser.Parser
	styles styles
}

type styles struct {
	bold     lipgloss.Style
	italic   lipgloss.Style
	strike   lipgloss.Style
	code     lipgloss.Style
	heading  lipgloss.Style
	muted    lipgloss.Style
	link     lipgloss.Style
	quoteBar lipgloss.Style
}

// New creates a Renderer for theme.
func New(theme parley.Theme) *Renderer {
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))
	return &Renderer{
		parser: md.Parser(),
		styles: styles{
			bold:     lipgloss.NewStyle().Bold(true),
			italic:   lipgloss.NewStyle().Italic(true),
			strike:   lipgloss.NewStyle().Strikethrough(true),
			code:     lipgloss.NewStyle().Foreground(color(theme.Assistant)),
			heading:  lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
			muted:    lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
			link:     lipgloss.NewStyle().Underline(true),
			quoteBar: lipgloss.NewStyle().Foreground(color(theme.Muted)),
		},
	}
}

// Render returns source as styled text. Paragraphs, headings, quotes and
// list items are word-wrapped to width; code blocks keep their lines.
func (r *Renderer) Render(source string, width int) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	src := []byte(source)
	doc := r.parser.Parse(text.NewReader(src))

	var buf bytes.Buffer
	w := &writer{styles: &r.styles, source: src, buf: &buf}
	w.blocks(doc, width)
	return strings.TrimRight(buf.String(), "\n")
}

// Render is shorthand for New(theme).Render(source, width).
func Render(source string, width int, theme parley.Theme) string {
	return New(theme).Render(source, width)
}

func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
