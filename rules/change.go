package rules

import (
	"fmt"
	"slices"
	"strings"
)

// ChangeType categorizes change entries.
type ChangeType string

const (
	ChangeGrid      ChangeType = "grid"
	ChangeUtility   ChangeType = "utility"
	ChangeComponent ChangeType = "component"
	ChangeForm      ChangeType = "form"
	ChangeClassMap  ChangeType = "class-map"
)

var changeTypes = []ChangeType{ChangeGrid, ChangeUtility, ChangeComponent, ChangeForm, ChangeClassMap}

func (t ChangeType) String() string {
	return string(t)
}

// ParseChangeType converts name to ChangeType.
func ParseChangeType(name string) (ChangeType, error) {
	if i := slices.Index(changeTypes, ChangeType(name)); i >= 0 {
		return changeTypes[i], nil
	}
	return "", fmt.Errorf("%q is not a valid change type, try [%s]", name, strings.Join(ChangeTypeNames(), ", "))
}

// ChangeTypeNames returns names of all change types in rule priority order.
func ChangeTypeNames() []string {
	names := make([]string, 0, len(changeTypes))
	for _, t := range changeTypes {
		names = append(names, string(t))
	}
	return names
}

// Change records a single mutation made by a rule set. Selector is computed
// at the moment of mutation and is only a display aid, later rule sets may
// change classes it was built from.
type Change struct {
	Type        ChangeType `yaml:"type" json:"type"`
	Rule        string     `yaml:"rule" json:"rule"`
	Element     string     `yaml:"element" json:"element"`
	Selector    string     `yaml:"selector" json:"selector"`
	OldClass    string     `yaml:"old_class" json:"oldClass"`
	NewClass    string     `yaml:"new_class" json:"newClass"`
	Description string     `yaml:"description" json:"description"`
	Warning     string     `yaml:"warning,omitempty" json:"warning,omitempty"`
}

// Sink is append-only change log of a single migration.
type Sink struct {
	entries []Change
}

func (s *Sink) Record(c Change) {
	s.entries = append(s.entries, c)
}

// Entries returns copy of recorded changes in recording order.
func (s *Sink) Entries() []Change {
	return slices.Clone(s.entries)
}

func (s *Sink) Len() int {
	return len(s.entries)
}

// Count is a named counter, slices of counts keep first-seen order.
type Count struct {
	Name  string `yaml:"name" json:"name"`
	Count int    `yaml:"count" json:"count"`
}

// Counts is ordered set of counters.
type Counts []Count

// Get returns counter value for name or 0.
func (c Counts) Get(name string) int {
	for _, e := range c {
		if e.Name == name {
			return e.Count
		}
	}
	return 0
}

func (c Counts) inc(name string) Counts {
	for i := range c {
		if c[i].Name == name {
			c[i].Count++
			return c
		}
	}
	return append(c, Count{Name: name, Count: 1})
}

// Tally counts changes by type and by rule name.
func Tally(changes []Change) (byType, byRule Counts) {
	byType, byRule = Counts{}, Counts{}
	for _, c := range changes {
		byType = byType.inc(string(c.Type))
		byRule = byRule.inc(c.Rule)
	}
	return byType, byRule
}

// ChangeGroup is a list of changes of the same type.
type ChangeGroup struct {
	Type    ChangeType
	Changes []Change
}

// Group splits changes by type preserving first-seen order of types and
// order of changes within a type.
func Group(changes []Change) []ChangeGroup {
	var groups []ChangeGroup
	for _, c := range changes {
		i := slices.IndexFunc(groups, func(g ChangeGroup) bool { return g.Type == c.Type })
		if i < 0 {
			groups = append(groups, ChangeGroup{Type: c.Type})
			i = len(groups) - 1
		}
		groups[i].Changes = append(groups[i].Changes, c)
	}
	return groups
}
