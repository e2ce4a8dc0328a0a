// Package markup builds the small HTML subset written into flashcard fields.
//
// Field values are assembled from typed fragments instead of spliced strings,
// so text is always escaped exactly once and joins stay predictable.
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Fragment is one piece of field markup.
type Fragment interface {
	render(b *strings.Builder)
}

type text string

func (t text) render(b *strings.Builder) {
	b.WriteString(html.EscapeString(string(t)))
}

type lineBreak struct{}

func (lineBreak) render(b *strings.Builder) {
	b.WriteString("<br>")
}

type element struct {
	tag      string
	style    string
	children []Fragment
}

func (e element) render(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(e.tag)
	if e.style != "" {
		b.WriteString(` style="`)
		b.WriteString(html.EscapeString(e.style))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	for _, c := range e.children {
		c.render(b)
	}
	b.WriteString("</")
	b.WriteString(e.tag)
	b.WriteByte('>')
}

// Text is escaped plain text.
func Text(s string) Fragment { return text(s) }

// Break is a line break.
func Break() Fragment { return lineBreak{} }

// Strong wraps children in an emphasis element.
func Strong(children ...Fragment) Fragment {
	return element{tag: "strong", children: children}
}

// Block wraps children in a div carrying an inline style (may be empty).
func Block(style string, children ...Fragment) Fragment {
	return element{tag: "div", style: style, children: children}
}

// Join interleaves frags with sep. A nil sep concatenates.
func Join(frags []Fragment, sep Fragment) []Fragment {
	if len(frags) == 0 {
		return nil
	}
	out := make([]Fragment, 0, 2*len(frags)-1)
	for i, f := range frags {
		if i > 0 && sep != nil {
			out = append(out, sep)
		}
		out = append(out, f)
	}
	return out
}

// Render serializes frags in order.
func Render(frags ...Fragment) string {
	var b strings.Builder
	for _, f := range frags {
		if f == nil {
			continue
		}
		f.render(&b)
	}
	return b.String()
}
