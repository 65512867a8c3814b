package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	yaml "gopkg.in/yaml.v3"

	"bsmig/journal"
	"bsmig/rules"
)

func status(e journal.Entry) string {
	switch {
	case !e.Success:
		return "failed"
	case e.Errors > 0:
		return "partial"
	default:
		return "ok"
	}
}

// writeRuns prints journal entries as aligned table, newest first.
func writeRuns(w io.Writer, entries []journal.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No migrations recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tSTATUS\tCHANGES\tWARNINGS\tELAPSED\tSOURCE\tDESTINATION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			e.Started.Local().Format(time.DateTime), e.RunID, status(e), e.Changes, e.Warnings,
			e.Elapsed.Round(time.Millisecond), e.Source, e.Destination)
	}
	return tw.Flush()
}

// writeChanges prints change entries of a single run as YAML.
func writeChanges(w io.Writer, runID string, changes []rules.Change) error {
	doc := struct {
		RunID   string         `yaml:"run_id"`
		Changes []rules.Change `yaml:"changes"`
	}{RunID: runID, Changes: changes}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("unable to encode changes: %w", err)
	}
	return enc.Close()
}
