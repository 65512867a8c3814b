package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsmig/rules"
)

func TestResult_Report(t *testing.T) {
	res := newMigrator(t).Migrate(`<span id="s" class="label label-danger"></span>`)
	require.True(t, res.Success)

	want := "Bootstrap 3 → 5 Migration Report\n" +
		"=====================================\n\n" +
		"Total Changes: 2\n" +
		"Affected Elements: 1\n\n" +
		"Changes by Type:\n" +
		"  class-map: 2\n" +
		"\nChanges by Rule:\n" +
		"  Simple Class Mappings: 2\n"
	assert.Equal(t, want, res.Report())
}

func TestResult_ReportWarningsAndErrors(t *testing.T) {
	res := &Result{
		Success:  true,
		Warnings: []string{"first", "second"},
		Errors:   []string{"Error in Grid System: oops"},
		Stats: Stats{
			TotalChanges:     1,
			AffectedElements: 1,
			ByType:           rules.Counts{{Name: "grid", Count: 1}},
			ByRule:           rules.Counts{{Name: "Grid System", Count: 1}},
			Coverage:         &Coverage{Before: 4, After: 1, Remaining: []string{"row"}},
		},
	}

	report := res.Report()
	assert.Contains(t, report, "\nLegacy Classes: 4 before, 1 after\n  remaining: row\n")
	assert.Contains(t, report, "\nWarnings (2):\n  1. first\n  2. second\n")
	assert.Contains(t, report, "\nErrors (1):\n  1. Error in Grid System: oops\n")
}

func TestResult_ReportFailure(t *testing.T) {
	res := newMigrator(t).Migrate("\xff")
	require.False(t, res.Success)

	report := res.Report()
	assert.Contains(t, report, "Total Changes: 0\n")
	assert.Contains(t, report, "Errors (1):\n  1. unable to parse HTML")
}

func TestResult_GroupedChanges(t *testing.T) {
	res := newMigrator(t).Migrate(`<div class="col-xs-6 pull-right"><img class="img-responsive" src="a"><p class="text-left">x</p></div>`)
	require.True(t, res.Success)

	groups := res.GroupedChanges()
	require.Len(t, groups, 3)
	assert.Equal(t, rules.ChangeGrid, groups[0].Type)
	assert.Len(t, groups[0].Changes, 2)
	assert.Equal(t, rules.ChangeUtility, groups[1].Type)
	assert.Len(t, groups[1].Changes, 2)
	assert.Equal(t, rules.ChangeClassMap, groups[2].Type)
	assert.Len(t, groups[2].Changes, 1)
}
