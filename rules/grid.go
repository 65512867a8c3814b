package rules

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"bsmig/markup"
)

// WarnPushPull accompanies lossy translation of push/pull column classes.
const WarnPushPull = "Push/pull utilities removed in BS5. Using order utility as replacement - may need manual adjustment."

// Grid breakpoints, "xs" is the default tier of the new grid.
var breakpoints = []string{"xs", "sm", "md", "lg", "xl", "xxl"}

const defaultTier = "xs"

var (
	colXS     = regexp.MustCompile(`^col-xs-(\d+)$`)
	colOffset = regexp.MustCompile(`^col-(\w+)-offset-(\d+)$`)
	colPush   = regexp.MustCompile(`^col-(\w+)-push-(\d+)$`)
	colPull   = regexp.MustCompile(`^col-(\w+)-pull-(\d+)$`)
)

// Grid migrates grid column classes. Runs first so the catch-all mapping never
// sees rewritten grid tokens. Container classes did not change between
// versions and are left alone.
type Grid struct{}

func (Grid) Name() string     { return "Grid System" }
func (Grid) Kind() ChangeType { return ChangeGrid }
func (Grid) Priority() int    { return 1 }

func (g Grid) Apply(tree *markup.Tree, sink *Sink) error {
	columns := tree.Select(func(el *markup.Element) bool {
		return slices.ContainsFunc(el.Classes(), func(c string) bool { return strings.HasPrefix(c, "col-") })
	})

	for _, el := range columns {
		original := el.ClassName()
		modified := false

		for _, cls := range el.Classes() {
			newClass, description, warning, ok := g.translate(cls)
			if !ok || !el.ReplaceClass(cls, newClass) {
				continue
			}
			modified = true

			c := newChange(g, el, cls, newClass, description)
			c.Warning = warning
			sink.Record(c)
		}

		if !modified {
			continue
		}
		if updated := el.ClassName(); updated != original {
			sink.Record(newChange(g, el, original, updated, fmt.Sprintf("Grid classes updated for %s", el.Tag())))
		}
	}
	return nil
}

// translate returns replacement for a single legacy grid token.
func (Grid) translate(cls string) (newClass, description, warning string, ok bool) {
	if m := colXS.FindStringSubmatch(cls); m != nil {
		newClass = "col-" + m[1]
		return newClass, fmt.Sprintf("Migrated %s to %s (xs is now default)", cls, newClass), "", true
	}
	if m := colOffset.FindStringSubmatch(cls); m != nil && slices.Contains(breakpoints, m[1]) {
		newClass = tiered("offset", m[1], m[2])
		return newClass, fmt.Sprintf("Migrated %s to %s (new offset syntax)", cls, newClass), "", true
	}
	if m := colPush.FindStringSubmatch(cls); m != nil && slices.Contains(breakpoints, m[1]) {
		newClass = tiered("order", m[1], "last")
		return newClass, fmt.Sprintf("Migrated %s to %s (push/pull removed, use order utilities)", cls, newClass), WarnPushPull, true
	}
	if m := colPull.FindStringSubmatch(cls); m != nil && slices.Contains(breakpoints, m[1]) {
		newClass = tiered("order", m[1], "first")
		return newClass, fmt.Sprintf("Migrated %s to %s (push/pull removed, use order utilities)", cls, newClass), WarnPushPull, true
	}
	return "", "", "", false
}

// tiered builds breakpoint scoped utility name, default tier has no infix.
func tiered(utility, breakpoint, value string) string {
	if breakpoint == defaultTier {
		return utility + "-" + value
	}
	return utility + "-" + breakpoint + "-" + value
}
