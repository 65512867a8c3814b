// Package differ derives display artifacts from a finished migration.
package differ

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"bsmig/rules"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape makes text safe to show inside markup.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Stats are change log counters.
type Stats struct {
	Total  int          `yaml:"total"`
	ByType rules.Counts `yaml:"by_type"`
	ByRule rules.Counts `yaml:"by_rule"`
}

// Diff is before and after text ready for display.
type Diff struct {
	Before string `yaml:"before"`
	After  string `yaml:"after"`
	Stats  Stats  `yaml:"stats"`
}

// Differ never modifies its inputs.
type Differ struct {
	original string
	migrated string
	changes  []rules.Change
}

func New(original, migrated string, changes []rules.Change) *Differ {
	return &Differ{original: original, migrated: migrated, changes: changes}
}

// Generate returns escaped texts and change statistics.
func (d *Differ) Generate() Diff {
	byType, byRule := rules.Tally(d.changes)
	return Diff{
		Before: Escape(d.original),
		After:  Escape(d.migrated),
		Stats: Stats{
			Total:  len(d.changes),
			ByType: byType,
			ByRule: byRule,
		},
	}
}

// GroupByType returns changes grouped by change type in first-seen order.
func (d *Differ) GroupByType() []rules.ChangeGroup {
	return rules.Group(d.changes)
}

// Unified returns unified diff of original and migrated text. Empty string
// means there is no difference.
func (d *Differ) Unified(fromName, toName string, context int) (string, error) {
	if context <= 0 {
		context = 3
	}
	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(d.original),
		B:        splitLines(d.migrated),
		FromFile: fromName,
		ToFile:   toName,
		Context:  context,
	})
	if err != nil {
		return "", fmt.Errorf("unable to produce diff: %w", err)
	}
	return patch, nil
}

// splitLines keeps line endings, last line always gets one.
func splitLines(s string) []string {
	if len(s) == 0 {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if last := len(lines) - 1; len(lines[last]) == 0 {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}
