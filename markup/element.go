package markup

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Element is a view of a single element node of the parsed fragment. All
// class mutations are written back to the node "class" attribute immediately,
// other attributes are never touched.
type Element struct {
	node *html.Node
}

func newElement(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return &Element{node: n}
}

// Tag returns lower-cased tag name.
func (e *Element) Tag() string {
	return strings.ToLower(e.node.Data)
}

// ID returns value of "id" attribute or empty string.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// Attr returns value of the attribute and reports its presence.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Classes returns class tokens in attribute order with duplicates and empty
// tokens removed. Returned slice belongs to the caller.
func (e *Element) Classes() []string {
	v, ok := e.Attr("class")
	if !ok {
		return nil
	}
	return uniqueTokens(strings.Fields(v))
}

// ClassName returns normalized class attribute value.
func (e *Element) ClassName() string {
	return strings.Join(e.Classes(), " ")
}

func (e *Element) HasClass(token string) bool {
	return slices.Contains(e.Classes(), token)
}

// AddClass appends tokens which are not already present. Reports whether
// anything was added.
func (e *Element) AddClass(tokens ...string) bool {
	classes := e.Classes()
	n := len(classes)
	for _, t := range tokens {
		if t != "" && !slices.Contains(classes, t) {
			classes = append(classes, t)
		}
	}
	if len(classes) == n {
		return false
	}
	e.setClasses(classes)
	return true
}

// RemoveClass removes token, reports whether it was present.
func (e *Element) RemoveClass(token string) bool {
	classes := e.Classes()
	i := slices.Index(classes, token)
	if i < 0 {
		return false
	}
	e.setClasses(slices.Delete(classes, i, i+1))
	return true
}

// ReplaceClass substitutes token old with replacement tokens at the position
// old occupied. Replacement tokens already carried by the element are not
// duplicated. Reports false and does nothing when old is absent.
func (e *Element) ReplaceClass(old string, replacement ...string) bool {
	classes := e.Classes()
	i := slices.Index(classes, old)
	if i < 0 {
		return false
	}
	rest := slices.Delete(slices.Clone(classes), i, i+1)
	insert := make([]string, 0, len(replacement))
	for _, t := range replacement {
		if t != "" && !slices.Contains(rest, t) && !slices.Contains(insert, t) {
			insert = append(insert, t)
		}
	}
	e.setClasses(slices.Insert(rest, i, insert...))
	return true
}

func (e *Element) setClasses(tokens []string) {
	val := strings.Join(uniqueTokens(tokens), " ")
	for i := range e.node.Attr {
		if e.node.Attr[i].Namespace == "" && e.node.Attr[i].Key == "class" {
			e.node.Attr[i].Val = val
			return
		}
	}
	if len(val) > 0 {
		e.node.Attr = append(e.node.Attr, html.Attribute{Key: "class", Val: val})
	}
}

// Parent returns enclosing element or nil for top level elements of the
// fragment. For navigation only.
func (e *Element) Parent() *Element {
	p := e.node.Parent
	if p == nil || p.Parent == nil {
		// fragment root is not an element of the document
		return nil
	}
	return newElement(p)
}

// Children returns direct child elements, text nodes are skipped.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if el := newElement(c); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// Find returns first descendant (in document order) carrying token or nil.
func (e *Element) Find(token string) *Element {
	var found *Element
	walk(e.node, func(n *html.Node) bool {
		if el := newElement(n); el != nil && el.HasClass(token) {
			found = el
			return false
		}
		return true
	})
	return found
}

// FindAll returns snapshot of all descendants carrying token in document order.
func (e *Element) FindAll(token string) []*Element {
	return collect(e.node, func(el *Element) bool { return el.HasClass(token) })
}

// Contains reports whether other is a descendant of e.
func (e *Element) Contains(other *Element) bool {
	if other == nil {
		return false
	}
	for p := other.node.Parent; p != nil; p = p.Parent {
		if p == e.node {
			return true
		}
	}
	return false
}

// Same reports whether both views refer to the same node.
func (e *Element) Same(other *Element) bool {
	return other != nil && e.node == other.node
}

func uniqueTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// walk visits descendants of n in document order, n itself is not visited.
// Returning false from fn stops the walk.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !fn(c) || !walk(c, fn) {
			return false
		}
	}
	return true
}

func collect(n *html.Node, pred func(*Element) bool) []*Element {
	var out []*Element
	walk(n, func(c *html.Node) bool {
		if el := newElement(c); el != nil && pred(el) {
			out = append(out, el)
		}
		return true
	})
	return out
}
