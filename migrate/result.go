package migrate

import (
	"fmt"
	"slices"
	"strings"

	"bsmig/rules"
)

// Result of a single migration.
type Result struct {
	Success      bool           `yaml:"success"`
	HTML         string         `yaml:"html"`
	OriginalHTML string         `yaml:"original_html"`
	Changes      []rules.Change `yaml:"changes"`
	Warnings     []string       `yaml:"warnings"`
	Errors       []string       `yaml:"errors"`
	Stats        Stats          `yaml:"stats"`
}

// Stats aggregates change log of a migration.
type Stats struct {
	TotalChanges int `yaml:"total_changes"`
	// AffectedElements is the number of distinct selectors in the change log.
	AffectedElements int          `yaml:"affected_elements"`
	ByType           rules.Counts `yaml:"by_type"`
	ByRule           rules.Counts `yaml:"by_rule"`
	Coverage         *Coverage    `yaml:"coverage,omitempty"`
}

// Coverage compares legacy looking class tokens before and after migration.
// Many legacy prefixes are still valid in the new version, so After is rarely
// zero.
type Coverage struct {
	Before    int      `yaml:"before"`
	After     int      `yaml:"after"`
	Remaining []string `yaml:"remaining,omitempty"`
}

func newStats(changes []rules.Change) Stats {
	byType, byRule := rules.Tally(changes)

	selectors := make(map[string]struct{}, len(changes))
	for _, c := range changes {
		if len(c.Selector) > 0 {
			selectors[c.Selector] = struct{}{}
		}
	}

	return Stats{
		TotalChanges:     len(changes),
		AffectedElements: len(selectors),
		ByType:           byType,
		ByRule:           byRule,
	}
}

func newCoverage(before, after []string) *Coverage {
	remaining := slices.Clone(after)
	slices.Sort(remaining)
	return &Coverage{
		Before:    len(before),
		After:     len(after),
		Remaining: slices.Compact(remaining),
	}
}

// GroupedChanges returns change log grouped by change type in first-seen
// order.
func (r *Result) GroupedChanges() []rules.ChangeGroup {
	return rules.Group(r.Changes)
}

// Report formats human readable migration summary.
func (r *Result) Report() string {
	var b strings.Builder

	b.WriteString("Bootstrap 3 → 5 Migration Report\n")
	b.WriteString("=====================================\n\n")
	fmt.Fprintf(&b, "Total Changes: %d\n", r.Stats.TotalChanges)
	fmt.Fprintf(&b, "Affected Elements: %d\n\n", r.Stats.AffectedElements)

	b.WriteString("Changes by Type:\n")
	for _, c := range r.Stats.ByType {
		fmt.Fprintf(&b, "  %s: %d\n", c.Name, c.Count)
	}

	b.WriteString("\nChanges by Rule:\n")
	for _, c := range r.Stats.ByRule {
		fmt.Fprintf(&b, "  %s: %d\n", c.Name, c.Count)
	}

	if cov := r.Stats.Coverage; cov != nil {
		fmt.Fprintf(&b, "\nLegacy Classes: %d before, %d after\n", cov.Before, cov.After)
		if len(cov.Remaining) > 0 {
			fmt.Fprintf(&b, "  remaining: %s\n", strings.Join(cov.Remaining, " "))
		}
	}

	enumerate(&b, "Warnings", r.Warnings)
	enumerate(&b, "Errors", r.Errors)

	return b.String()
}

func enumerate(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d):\n", title, len(items))
	for i, item := range items {
		fmt.Fprintf(b, "  %d. %s\n", i+1, item)
	}
}
