package convert

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	yaml "gopkg.in/yaml.v3"

	"bsmig/config"
	"bsmig/migrate"
	"bsmig/misc"
	"bsmig/rules"
)

// changeLog is exported description of a single migrated file.
type changeLog struct {
	RunID    string          `yaml:"run_id"`
	Tool     string          `yaml:"tool"`
	Source   string          `yaml:"source"`
	Output   string          `yaml:"output"`
	Encoding string          `yaml:"encoding"`
	Started  time.Time       `yaml:"started"`
	Result   *migrate.Result `yaml:"-"`
}

type yamlChangeLog struct {
	Header   changeLog      `yaml:",inline"`
	Success  bool           `yaml:"success"`
	Stats    migrate.Stats  `yaml:"stats"`
	Changes  []rules.Change `yaml:"changes"`
	Warnings []string       `yaml:"warnings,omitempty"`
	Errors   []string       `yaml:"errors,omitempty"`
}

func newChangeLog(runID, src, out, enc string, started time.Time, res *migrate.Result) changeLog {
	return changeLog{
		RunID:    runID,
		Tool:     misc.GetAppName() + " " + misc.GetVersion(),
		Source:   src,
		Output:   out,
		Encoding: enc,
		Started:  started.UTC(),
		Result:   res,
	}
}

// writeChangeLog exports change log in requested format.
func writeChangeLog(w io.Writer, format config.ChangeLogFormat, cl changeLog) error {
	switch format {
	case config.ChangeLogFormatText:
		return writeTextChangeLog(w, cl)
	case config.ChangeLogFormatYaml:
		return writeYamlChangeLog(w, cl)
	case config.ChangeLogFormatXml:
		return writeXmlChangeLog(w, cl)
	default:
		return fmt.Errorf("unsupported change log format %s", format)
	}
}

func writeTextChangeLog(w io.Writer, cl changeLog) error {
	b := new(strings.Builder)
	fmt.Fprintf(b, "Run: %s\nSource: %s\nOutput: %s\nEncoding: %s\nStarted: %s\n\n",
		cl.RunID, cl.Source, cl.Output, cl.Encoding, cl.Started.Format(time.RFC3339))
	b.WriteString(cl.Result.Report())

	if groups := cl.Result.GroupedChanges(); len(groups) > 0 {
		b.WriteString("\nChanges:\n")
		for _, g := range groups {
			fmt.Fprintf(b, "  %s (%d)\n", g.Type, len(g.Changes))
			for _, c := range g.Changes {
				fmt.Fprintf(b, "    %s: %s\n", c.Selector, c.Description)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeYamlChangeLog(w io.Writer, cl changeLog) error {
	doc := yamlChangeLog{
		Header:   cl,
		Success:  cl.Result.Success,
		Stats:    cl.Result.Stats,
		Changes:  cl.Result.Changes,
		Warnings: cl.Result.Warnings,
		Errors:   cl.Result.Errors,
	}
	if doc.Changes == nil {
		doc.Changes = []rules.Change{}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("unable to encode change log: %w", err)
	}
	return enc.Close()
}

func writeXmlChangeLog(w io.Writer, cl changeLog) error {
	res := cl.Result

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("migration")
	root.CreateAttr("run-id", cl.RunID)
	root.CreateAttr("tool", cl.Tool)
	root.CreateAttr("source", cl.Source)
	root.CreateAttr("output", cl.Output)
	root.CreateAttr("encoding", cl.Encoding)
	root.CreateAttr("started", cl.Started.Format(time.RFC3339))
	root.CreateAttr("success", strconv.FormatBool(res.Success))

	stats := root.CreateElement("stats")
	stats.CreateAttr("total", strconv.Itoa(res.Stats.TotalChanges))
	stats.CreateAttr("affected", strconv.Itoa(res.Stats.AffectedElements))
	for _, c := range res.Stats.ByType {
		el := stats.CreateElement("type")
		el.CreateAttr("name", c.Name)
		el.CreateAttr("count", strconv.Itoa(c.Count))
	}
	for _, c := range res.Stats.ByRule {
		el := stats.CreateElement("rule")
		el.CreateAttr("name", c.Name)
		el.CreateAttr("count", strconv.Itoa(c.Count))
	}
	if cov := res.Stats.Coverage; cov != nil {
		el := stats.CreateElement("coverage")
		el.CreateAttr("before", strconv.Itoa(cov.Before))
		el.CreateAttr("after", strconv.Itoa(cov.After))
		for _, token := range cov.Remaining {
			el.CreateElement("remaining").SetText(token)
		}
	}

	changes := root.CreateElement("changes")
	for _, c := range res.Changes {
		el := changes.CreateElement("change")
		el.CreateAttr("type", c.Type.String())
		el.CreateAttr("rule", c.Rule)
		el.CreateAttr("element", c.Element)
		el.CreateAttr("selector", c.Selector)
		el.CreateElement("old").SetText(c.OldClass)
		el.CreateElement("new").SetText(c.NewClass)
		el.CreateElement("description").SetText(c.Description)
		if len(c.Warning) > 0 {
			el.CreateElement("warning").SetText(c.Warning)
		}
	}

	if len(res.Warnings) > 0 {
		list := root.CreateElement("warnings")
		for _, msg := range res.Warnings {
			list.CreateElement("warning").SetText(msg)
		}
	}
	if len(res.Errors) > 0 {
		list := root.CreateElement("errors")
		for _, msg := range res.Errors {
			list.CreateElement("error").SetText(msg)
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write change log: %w", err)
	}
	return nil
}
