package convert

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap/zaptest"
	yaml "gopkg.in/yaml.v3"

	"bsmig/config"
	"bsmig/migrate"
	"bsmig/misc"
)

const changeLogSample = `<div class="row"><div class="col-xs-12 pull-right">x</div></div>`

func sampleChangeLog(t *testing.T) changeLog {
	t.Helper()
	res := migrate.New(zaptest.NewLogger(t), migrate.WithCoverage(true)).Migrate(changeLogSample)
	if !res.Success {
		t.Fatalf("migration failed: %v", res.Errors)
	}
	if len(res.Changes) == 0 {
		t.Fatal("sample produced no changes")
	}
	return newChangeLog("run-1", "index.html", "/out/index.html", "utf-8",
		time.Date(2024, time.March, 5, 10, 0, 0, 0, time.FixedZone("X", 3600)), res)
}

func TestNewChangeLog(t *testing.T) {
	cl := sampleChangeLog(t)
	if cl.Started.Location() != time.UTC {
		t.Errorf("Started should be in UTC, got %v", cl.Started.Location())
	}
	if cl.Started.Hour() != 9 {
		t.Errorf("Started = %v", cl.Started)
	}
	if want := misc.GetAppName() + " " + misc.GetVersion(); cl.Tool != want {
		t.Errorf("Tool = %q, want %q", cl.Tool, want)
	}
}

func TestWriteChangeLog_Text(t *testing.T) {
	cl := sampleChangeLog(t)

	var buf bytes.Buffer
	if err := writeChangeLog(&buf, config.ChangeLogFormatText, cl); err != nil {
		t.Fatalf("writeChangeLog() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Run: run-1\n",
		"Source: index.html\n",
		"Started: 2024-03-05T09:00:00Z\n",
		"Total Changes: ",
		"\nChanges:\n",
		"  grid (",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text change log does not contain %q:\n%s", want, out)
		}
	}
}

func TestWriteChangeLog_Yaml(t *testing.T) {
	cl := sampleChangeLog(t)

	var buf bytes.Buffer
	if err := writeChangeLog(&buf, config.ChangeLogFormatYaml, cl); err != nil {
		t.Fatalf("writeChangeLog() error: %v", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("change log is not valid yaml: %v\n%s", err, buf.String())
	}
	if doc["run_id"] != "run-1" || doc["source"] != "index.html" || doc["encoding"] != "utf-8" {
		t.Errorf("header fields are not inlined: %v", doc)
	}
	if doc["success"] != true {
		t.Errorf("success = %v", doc["success"])
	}
	if _, ok := doc["result"]; ok {
		t.Error("result must not be exported")
	}
	changes, ok := doc["changes"].([]any)
	if !ok || len(changes) != len(cl.Result.Changes) {
		t.Errorf("changes = %v", doc["changes"])
	}
	stats, ok := doc["stats"].(map[string]any)
	if !ok || stats["coverage"] == nil {
		t.Errorf("stats = %v", doc["stats"])
	}
}

func TestWriteChangeLog_YamlNoChanges(t *testing.T) {
	res := migrate.New(zaptest.NewLogger(t)).Migrate(`<p class="text-center">x</p>`)
	cl := newChangeLog("run-2", "a.html", "b.html", "utf-8", time.Now(), res)

	var buf bytes.Buffer
	if err := writeChangeLog(&buf, config.ChangeLogFormatYaml, cl); err != nil {
		t.Fatalf("writeChangeLog() error: %v", err)
	}
	if !strings.Contains(buf.String(), "changes: []") {
		t.Errorf("expected empty changes list:\n%s", buf.String())
	}
}

func TestWriteChangeLog_Xml(t *testing.T) {
	cl := sampleChangeLog(t)

	var buf bytes.Buffer
	if err := writeChangeLog(&buf, config.ChangeLogFormatXml, cl); err != nil {
		t.Fatalf("writeChangeLog() error: %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(buf.Bytes()); err != nil {
		t.Fatalf("change log is not valid xml: %v", err)
	}
	root := doc.SelectElement("migration")
	if root == nil {
		t.Fatalf("missing root element:\n%s", buf.String())
	}
	if root.SelectAttrValue("run-id", "") != "run-1" || root.SelectAttrValue("success", "") != "true" {
		t.Errorf("unexpected root attributes: %v", root.Attr)
	}
	if got := len(root.FindElements("./changes/change")); got != len(cl.Result.Changes) {
		t.Errorf("change elements = %d, want %d", got, len(cl.Result.Changes))
	}
	if root.FindElement("./stats/coverage") == nil {
		t.Error("missing coverage element")
	}
	if root.FindElement("./stats/type[@name='grid']") == nil {
		t.Errorf("missing grid counter:\n%s", buf.String())
	}
}

func TestWriteChangeLog_Unsupported(t *testing.T) {
	cl := sampleChangeLog(t)
	if err := writeChangeLog(new(bytes.Buffer), config.ChangeLogFormatNone, cl); err == nil {
		t.Error("writeChangeLog() expected error for none format")
	}
}
