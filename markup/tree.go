package markup

import (
	"strings"

	"golang.org/x/net/html"

	"bsmig/utils/debug"
)

// Tree is the mutable element tree of a single fragment. It is created by
// Parser for one migration and is not safe for concurrent use.
type Tree struct {
	root *html.Node
}

// Elements returns snapshot of all elements in document order.
func (t *Tree) Elements() []*Element {
	return collect(t.root, func(*Element) bool { return true })
}

// FindAll returns snapshot of all elements carrying class token.
func (t *Tree) FindAll(token string) []*Element {
	return collect(t.root, func(el *Element) bool { return el.HasClass(token) })
}

// Select returns snapshot of all elements satisfying predicate.
func (t *Tree) Select(pred func(*Element) bool) []*Element {
	return collect(t.root, pred)
}

// Roots returns top level elements of the fragment.
func (t *Tree) Roots() []*Element {
	var out []*Element
	for c := t.root.FirstChild; c != nil; c = c.NextSibling {
		if el := newElement(c); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// Len returns number of elements in the tree.
func (t *Tree) Len() int {
	count := 0
	walk(t.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			count++
		}
		return true
	})
	return count
}

// LegacyTokens returns all class tokens in the tree recognized as legacy
// framework vocabulary, one entry per element occurrence.
func (t *Tree) LegacyTokens() []string {
	var out []string
	for _, el := range t.Elements() {
		out = append(out, LegacyClasses(el.ClassName())...)
	}
	return out
}

// Dump produces indented textual representation of the tree for debugging.
func (t *Tree) Dump() string {
	tw := debug.NewTreeWriter()
	var dump func(n *html.Node, depth int)
	dump = func(n *html.Node, depth int) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.ElementNode:
				el := newElement(c)
				if id := el.ID(); len(id) > 0 {
					tw.Line(depth, "<%s> #%s", el.Tag(), id)
				} else {
					tw.Line(depth, "<%s>", el.Tag())
				}
				tw.List(depth+1, "class", el.Classes())
				dump(c, depth+1)
			case html.TextNode:
				if text := strings.TrimSpace(c.Data); len(text) > 0 {
					tw.TextBlock(depth, "text", text)
				}
			case html.CommentNode:
				tw.TextBlock(depth, "comment", c.Data)
			}
		}
	}
	dump(t.root, 0)
	return tw.String()
}
