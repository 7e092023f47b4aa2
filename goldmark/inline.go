package goldmark

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// inline returns the styled inline content of node's children.
func (w *writer) inline(node ast.Node) string {
	var sb strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &sb)
	}
	return sb.String()
}

func (w *writer) span(node ast.Node, sb *strings.Builder) {
	s := w.styles
	switch n := node.(type) {
	case *ast.Text:
		sb.Write(n.Segment.Value(w.source))
		switch {
		case n.HardLineBreak():
			sb.WriteByte('\n')
		case n.SoftLineBreak():
			sb.WriteByte(' ')
		}

	case *ast.String:
		sb.Write(n.Value)

	case *ast.Emphasis:
		if n.Level == 1 {
			sb.WriteString(s.italic.Render(w.inline(n)))
		} else {
			sb.WriteString(s.bold.Render(w.inline(n)))
		}

	case *east.Strikethrough:
		sb.WriteString(s.strike.Render(w.inline(n)))

	case *ast.CodeSpan:
		sb.WriteString(s.code.Render(w.inline(n)))

	case *ast.Link:
		label := w.inline(n)
		dest := string(n.Destination)
		sb.WriteString(s.link.Render(label))
		if label != dest {
			sb.WriteString(" " + s.muted.Render("("+dest+")"))
		}

	case *ast.AutoLink:
		sb.WriteString(s.link.Render(string(n.URL(w.source))))

	case *ast.Image:
		sb.WriteString(s.muted.Render("[image: " + w.inline(n) + "]"))

	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(w.source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, sb)
		}
	}
}
