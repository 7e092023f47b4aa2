package goldmark

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// writer walks one parsed document.
type writer struct {
	styles *styles
	source []byte
	buf    *bytes.Buffer
}

func (w *writer) blocks(parent ast.Node, width int) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, width)
		if n.NextSibling() != nil {
			w.buf.WriteString("\n")
		}
	}
}

func (w *writer) block(node ast.Node, width int) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.wrapped(w.inline(n), width)

	case *ast.Heading:
		w.wrapped(w.styles.heading.Render(w.inline(n)), width)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.source)); lang != "" {
			w.buf.WriteString(w.styles.muted.Render(lang) + "\n")
		}
		w.code(n.Lines())

	case *ast.CodeBlock:
		w.code(n.Lines())

	case *ast.Blockquote:
		w.quote(n, width)

	case *ast.List:
		w.list(n, width, 0)

	case *ast.ThematicBreak:
		w.buf.WriteString(w.styles.muted.Render(strings.Repeat("─", min(width, 40))) + "\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			w.buf.Write(seg.Value(w.source))
		}

	default:
		w.blocks(node, width)
	}
}

func (w *writer) wrapped(s string, width int) {
	w.buf.WriteString(lipgloss.NewStyle().Width(width).Render(s))
	w.buf.WriteString("\n")
}

func (w *writer) code(lines *text.Segments) {
	gutter := w.styles.muted.Render("│") + " "
	for i := range lines.Len() {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(w.source)), "\n")
		w.buf.WriteString(gutter + w.styles.code.Render(line) + "\n")
	}
}

// quote renders children into a scratch buffer, then prefixes every line
// with a bar.
func (w *writer) quote(n *ast.Blockquote, width int) {
	var inner bytes.Buffer
	sub := &writer{styles: w.styles, source: w.source, buf: &inner}
	sub.blocks(n, max(width-2, 10))
	bar := w.styles.quoteBar.Render("▎") + " "
	for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
		w.buf.WriteString(bar + line + "\n")
	}
}

func (w *writer) list(n *ast.List, width, depth int) {
	num := n.Start
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		indent := strings.Repeat("  ", depth)

		var content strings.Builder
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.List:
				if content.Len() > 0 {
					w.item(indent, marker, content.String(), width)
					content.Reset()
					marker = strings.Repeat(" ", len(marker))
				}
				w.list(in, width, depth+1)
			case *ast.Paragraph, *ast.TextBlock:
				if content.Len() > 0 {
					content.WriteString(" ")
				}
				content.WriteString(w.inline(in))
			default:
				var scratch bytes.Buffer
				sub := &writer{styles: w.styles, source: w.source, buf: &scratch}
				sub.block(ic, width)
				content.WriteString(strings.TrimRight(scratch.String(), "\n"))
			}
		}
		if content.Len() > 0 {
			w.item(indent, marker, content.String(), width)
		}
	}
}

// item writes one list entry with hanging indentation.
func (w *writer) item(indent, marker, content string, width int) {
	prefix := indent + marker
	pad := lipgloss.Width(prefix)
	wrapped := lipgloss.NewStyle().Width(max(width-pad, 10)).Render(content)
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			w.buf.WriteString(prefix + line + "\n")
			continue
		}
		w.buf.WriteString(strings.Repeat(" ", pad) + line + "\n")
	}
}
