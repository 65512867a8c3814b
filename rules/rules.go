// Package rules contains Bootstrap 3 to Bootstrap 5 migration knowledge
// organized in rule sets applied to the element tree one after another.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"bsmig/markup"
)

// RuleSet is a self-contained unit of migration knowledge. Apply mutates the
// tree and records every mutation in sink, it must not keep references to
// either after returning. Running Apply over already migrated markup must
// not produce any changes.
type RuleSet interface {
	Name() string
	Kind() ChangeType
	Priority() int
	Apply(tree *markup.Tree, sink *Sink) error
}

// Default returns all rule sets in ascending priority order.
func Default() []RuleSet {
	return Sorted([]RuleSet{ClassMap{}, Form{}, Component{}, Utility{}, Grid{}})
}

// Sorted returns copy of rule sets ordered by ascending priority, order of
// rule sets with equal priority is kept.
func Sorted(sets []RuleSet) []RuleSet {
	out := slices.Clone(sets)
	slices.SortStableFunc(out, func(a, b RuleSet) int { return a.Priority() - b.Priority() })
	return out
}

// Select returns default rule sets of requested kinds in priority order.
func Select(kinds []ChangeType) ([]RuleSet, error) {
	for _, k := range kinds {
		if _, err := ParseChangeType(string(k)); err != nil {
			return nil, err
		}
	}
	var out []RuleSet
	for _, rs := range Default() {
		if slices.Contains(kinds, rs.Kind()) {
			out = append(out, rs)
		}
	}
	return out, nil
}

// Selector returns best-effort human readable locator of the element: id
// based when id is present, otherwise tag with first two classes.
func Selector(el *markup.Element) string {
	if id := el.ID(); len(id) > 0 {
		return "#" + id
	}
	if classes := el.Classes(); len(classes) > 0 {
		return el.Tag() + "." + strings.Join(classes[:min(2, len(classes))], ".")
	}
	return el.Tag()
}

func newChange(rs RuleSet, el *markup.Element, oldClass, newClass, description string) Change {
	return Change{
		Type:        rs.Kind(),
		Rule:        rs.Name(),
		Element:     el.Tag(),
		Selector:    Selector(el),
		OldClass:    oldClass,
		NewClass:    newClass,
		Description: description,
	}
}

// substitution replaces a single class token with one or more tokens.
type substitution struct {
	from string
	to   string
}

// identity entries are kept in tables for completeness only.
func (s substitution) identity() bool {
	return s.from == s.to
}

// substitute applies table to the tree in table order. Every element carrying
// source token gets it replaced in place and one change is recorded per
// element per source token. Visited elements are passed to onMatch if it is
// not nil.
func substitute(tree *markup.Tree, sink *Sink, rs RuleSet, table []substitution,
	describe func(from, to string) string, onMatch func(s substitution, el *markup.Element)) {

	for _, s := range table {
		if s.identity() {
			continue
		}
		for _, el := range tree.FindAll(s.from) {
			// snapshot may be stale if previous substitution touched element
			if !el.ReplaceClass(s.from, strings.Fields(s.to)...) {
				continue
			}
			sink.Record(newChange(rs, el, s.from, s.to, describe(s.from, s.to)))
			if onMatch != nil {
				onMatch(s, el)
			}
		}
	}
}

func describeReplacement(from, to string) string {
	return fmt.Sprintf("Replaced '%s' with '%s'", from, to)
}
