package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"

	"bsmig/config"
	"bsmig/journal"
	"bsmig/state"
)

const sampleMarkup = `<div class="container"><div class="row"><div class="col-xs-12 col-md-6 pull-right">Hello</div></div></div>`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return string(data)
}

func assertMigrated(t *testing.T, out string) {
	t.Helper()
	if !strings.Contains(out, "col-12") || strings.Contains(out, "col-xs-12") {
		t.Errorf("grid classes were not migrated:\n%s", out)
	}
	if !strings.Contains(out, "float-end") || strings.Contains(out, "pull-right") {
		t.Errorf("utility classes were not migrated:\n%s", out)
	}
}

func TestProcessFile_WritesOutput(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dst := t.TempDir()

	if err := processFile(ctx, []byte(sampleMarkup), "index.html", "", dst, env.Log); err != nil {
		t.Fatalf("processFile() error: %v", err)
	}
	assertMigrated(t, readOutput(t, filepath.Join(dst, "index.html")))

	for _, name := range []string{"index.html.changes.txt", "index.html.diff"} {
		if _, err := os.Stat(filepath.Join(dst, name)); !os.IsNotExist(err) {
			t.Errorf("%s should not be written with default configuration", name)
		}
	}
}

func TestProcessFile_Overwrite(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dst := t.TempDir()
	existing := writeTestFile(t, dst, "index.html", []byte("old"))

	err := processFile(ctx, []byte(sampleMarkup), "index.html", "", dst, env.Log)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("processFile() error = %v, want already exists", err)
	}
	if readOutput(t, existing) != "old" {
		t.Error("existing file must be kept without overwrite")
	}

	env.Overwrite = true
	if err := processFile(ctx, []byte(sampleMarkup), "index.html", "", dst, env.Log); err != nil {
		t.Fatalf("processFile() with overwrite error: %v", err)
	}
	assertMigrated(t, readOutput(t, existing))
}

func TestProcessFile_ChangeLogAndDiff(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Output.Changes = config.ChangeLogFormatYaml
	env.Cfg.Output.Diff = true
	dst := t.TempDir()

	if err := processFile(ctx, []byte(sampleMarkup), filepath.FromSlash("site/index.html"), "", dst, env.Log); err != nil {
		t.Fatalf("processFile() error: %v", err)
	}

	out := filepath.Join(dst, "site", "index.html")
	changes := readOutput(t, out+".changes.yaml")
	if !strings.Contains(changes, "run_id:") || !strings.Contains(changes, "col-xs-12") {
		t.Errorf("unexpected change log:\n%s", changes)
	}

	patch := readOutput(t, out+".diff")
	if !strings.Contains(patch, "--- site/index.html") || !strings.Contains(patch, "+++ index.html") {
		t.Errorf("unexpected diff header:\n%s", patch)
	}
	if !strings.Contains(patch, "+") || !strings.Contains(patch, "col-12") {
		t.Errorf("diff does not show migrated markup:\n%s", patch)
	}
}

func TestProcessFile_NoDiffWithoutChanges(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Output.Diff = true
	dst := t.TempDir()

	if err := processFile(ctx, []byte(`<p class="text-center">same</p>`), "same.html", "", dst, env.Log); err != nil {
		t.Fatalf("processFile() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "same.html.diff")); !os.IsNotExist(err) {
		t.Error("empty diff should not be written")
	}
}

func TestProcessFile_NameTemplate(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Output.NameTemplate = "{{ .SourceFile }}-{{ .Changes }}"
	env.Cfg.Output.Extension = ".bs5.html"
	env.NoDirs = true
	dst := t.TempDir()

	if err := processFile(ctx, []byte(`<div class="col-xs-12">x</div>`), filepath.FromSlash("a/page.html"), "", dst, env.Log); err != nil {
		t.Fatalf("processFile() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "page-1.bs5.html")); err != nil {
		t.Errorf("templated output is missing: %v", err)
	}
}

func TestProcessFile_Encoding(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dst := t.TempDir()

	data, err := charmap.Windows1251.NewEncoder().Bytes([]byte(`<meta charset="windows-1251"><p class="pull-left">Привет</p>`))
	if err != nil {
		t.Fatalf("failed to encode input: %v", err)
	}
	if err := processFile(ctx, data, "ru.html", "", dst, env.Log); err != nil {
		t.Fatalf("processFile() error: %v", err)
	}
	out := readOutput(t, filepath.Join(dst, "ru.html"))
	if !strings.Contains(out, "Привет") || !strings.Contains(out, "float-start") {
		t.Errorf("output is not decoded and migrated:\n%s", out)
	}
}

func TestProcessFile_Journal(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dst := t.TempDir()

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), env.Log)
	if err != nil {
		t.Fatalf("journal.Open() error: %v", err)
	}
	defer j.Close()
	env.Journal = j

	if err := processFile(ctx, []byte(sampleMarkup), "index.html", "", dst, env.Log); err != nil {
		t.Fatalf("processFile() error: %v", err)
	}

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(entries))
	}
	e := entries[0]
	if !e.Success || e.Source != "index.html" || e.Destination != filepath.Join(dst, "index.html") {
		t.Errorf("unexpected journal entry: %+v", e)
	}
	changes, err := j.Changes(e.RunID)
	if err != nil {
		t.Fatalf("Changes() error: %v", err)
	}
	if len(changes) != e.Changes || len(changes) == 0 {
		t.Errorf("journal keeps %d changes, entry says %d", len(changes), e.Changes)
	}
}

func TestProcessFile_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dst := t.TempDir()

	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	env.Rpt = rpt

	if err := processFile(ctx, []byte(sampleMarkup), "index.html", "", dst, env.Log); err != nil {
		t.Fatalf("processFile() error: %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	zr, err := zip.OpenReader(rpt.Name())
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	var parsed, migrated, source, result bool
	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "tree-") && strings.HasSuffix(f.Name, "-parsed.txt"):
			parsed = true
		case strings.HasPrefix(f.Name, "tree-") && strings.HasSuffix(f.Name, "-migrated.txt"):
			migrated = true
		case strings.HasPrefix(f.Name, "source-"):
			source = true
		case strings.HasPrefix(f.Name, "result-"):
			result = true
		}
	}
	if !parsed || !migrated || !source || !result {
		t.Errorf("report is incomplete: parsed=%v migrated=%v source=%v result=%v", parsed, migrated, source, result)
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := writeTestFile(t, t.TempDir(), "index.html", []byte(sampleMarkup))
	dst := t.TempDir()

	if err := process(ctx, src, dst, env.Log); err != nil {
		t.Fatalf("process() error: %v", err)
	}
	assertMigrated(t, readOutput(t, filepath.Join(dst, "index.html")))
}

func TestProcess_SourceDirectoryAsDestination(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	src := writeTestFile(t, dir, "page.html", []byte(sampleMarkup))

	for _, overwrite := range []bool{false, true} {
		env.Overwrite = overwrite
		err := process(ctx, src, dir, env.Log)
		if err == nil || !strings.Contains(err.Error(), "would replace source") {
			t.Fatalf("process(overwrite=%v) error = %v, want refusal to replace source", overwrite, err)
		}
		if readOutput(t, src) != sampleMarkup {
			t.Fatalf("source was modified with overwrite=%v", overwrite)
		}
	}

	env.Overwrite = false
	env.Cfg.Output.Extension = ".bs5.html"
	if err := process(ctx, src, dir, env.Log); err != nil {
		t.Fatalf("process() with distinct extension error: %v", err)
	}
	assertMigrated(t, readOutput(t, filepath.Join(dir, "page.bs5.html")))
	if readOutput(t, src) != sampleMarkup {
		t.Error("source must be kept when output has different name")
	}
}

func TestProcess_InPlace(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	src := writeTestFile(t, dir, "page.html", []byte(sampleMarkup))
	env.InPlace = true

	if err := process(ctx, src, dir, env.Log); err != nil {
		t.Fatalf("process() in place error: %v", err)
	}
	assertMigrated(t, readOutput(t, src))
}

func TestProcess_DirectoryIntoItself(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.html", []byte(sampleMarkup))
	b := writeTestFile(t, dir, filepath.FromSlash("sub/b.html"), []byte(sampleMarkup))

	err := process(ctx, dir, dir, env.Log)
	if err == nil || !strings.Contains(err.Error(), "would replace source") {
		t.Fatalf("process() error = %v, want refusal to replace source", err)
	}
	for _, name := range []string{a, b} {
		if readOutput(t, name) != sampleMarkup {
			t.Errorf("%s was modified", name)
		}
	}
}

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.html", nil)
	writeTestFile(t, dir, "b.html", nil)

	if !sameFile(a, filepath.Join(dir, "sub", "..", "a.html")) {
		t.Error("sameFile() should match cleaned paths")
	}
	if sameFile(a, filepath.Join(dir, "b.html")) {
		t.Error("sameFile() should not match different files")
	}
	if sameFile(a, filepath.Join(dir, "missing.html")) {
		t.Error("sameFile() should not match missing file")
	}
}

func TestProcess_Directory(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := t.TempDir()
	writeTestFile(t, src, "a.html", []byte(sampleMarkup))
	writeTestFile(t, src, filepath.FromSlash("sub/b.htm"), []byte(sampleMarkup))
	writeTestFile(t, src, "notes.txt", []byte("not markup"))
	dst := filepath.Join(src, "out")
	writeTestFile(t, dst, "stale.html", []byte(sampleMarkup))

	if err := process(ctx, src, dst, env.Log); err != nil {
		t.Fatalf("process() error: %v", err)
	}
	assertMigrated(t, readOutput(t, filepath.Join(dst, "a.html")))
	assertMigrated(t, readOutput(t, filepath.Join(dst, "sub", "b.htm")))

	if _, err := os.Stat(filepath.Join(dst, "notes.txt")); !os.IsNotExist(err) {
		t.Error("non markup files should be skipped")
	}
	if _, err := os.Stat(filepath.Join(dst, "out")); !os.IsNotExist(err) {
		t.Error("destination inside source must not be processed")
	}
}

func TestProcess_DirectoryCollectsErrors(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := t.TempDir()
	writeTestFile(t, src, "a.html", []byte(sampleMarkup))
	writeTestFile(t, src, "b.html", []byte(sampleMarkup))
	dst := t.TempDir()
	writeTestFile(t, dst, "a.html", []byte("old"))

	err := process(ctx, src, dst, env.Log)
	if err == nil || !strings.Contains(err.Error(), "a.html") {
		t.Fatalf("process() error = %v, want failure for a.html", err)
	}
	assertMigrated(t, readOutput(t, filepath.Join(dst, "b.html")))
}

func TestProcess_Archive(t *testing.T) {
	ctx, env := setupTestEnv(t)
	arc := filepath.Join(t.TempDir(), "site.zip")
	writeTestZip(t, arc, map[string]string{
		"pages/index.html":   sampleMarkup,
		"pages/style.css":    ".row{}",
		"pagesextra/x.html":  sampleMarkup,
		"other/ignored.html": sampleMarkup,
	})
	dst := t.TempDir()

	if err := process(ctx, filepath.Join(arc, "pages"), dst, env.Log); err != nil {
		t.Fatalf("process() error: %v", err)
	}
	assertMigrated(t, readOutput(t, filepath.Join(dst, "pages", "index.html")))
	for _, name := range []string{"pages/style.css", "pagesextra", "other"} {
		if _, err := os.Stat(filepath.Join(dst, filepath.FromSlash(name))); !os.IsNotExist(err) {
			t.Errorf("%s should not be extracted", name)
		}
	}
}

func TestProcess_WholeArchive(t *testing.T) {
	ctx, env := setupTestEnv(t)
	arc := filepath.Join(t.TempDir(), "site.zip")
	writeTestZip(t, arc, map[string]string{
		"index.html":      sampleMarkup,
		"docs/about.html": sampleMarkup,
	})
	dst := t.TempDir()

	if err := process(ctx, arc, dst, env.Log); err != nil {
		t.Fatalf("process() error: %v", err)
	}
	assertMigrated(t, readOutput(t, filepath.Join(dst, "index.html")))
	assertMigrated(t, readOutput(t, filepath.Join(dst, "docs", "about.html")))
}

func TestProcess_Errors(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	text := writeTestFile(t, dir, "notes.txt", []byte("plain"))
	html := writeTestFile(t, dir, "index.html", []byte(sampleMarkup))

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"missing", filepath.Join(dir, "missing.html"), "not found"},
		{"not markup", text, "not recognized as markup"},
		{"file with tail", filepath.Join(html, "inner.html"), "not recognized as markup"},
		{"directory with tail", filepath.Join(dir, "nowhere", "x.html"), "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := process(ctx, tt.src, t.TempDir(), env.Log)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("process() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, env := setupTestEnv(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	src := writeTestFile(t, t.TempDir(), "index.html", []byte(sampleMarkup))
	if err := process(ctx, src, t.TempDir(), env.Log); err == nil {
		t.Error("process() expected error for cancelled context")
	}
}

func TestProcessStream(t *testing.T) {
	ctx, env := setupTestEnv(t)

	var out bytes.Buffer
	if err := processStream(ctx, strings.NewReader(sampleMarkup), &out, env.Log); err != nil {
		t.Fatalf("processStream() error: %v", err)
	}
	assertMigrated(t, out.String())
}

func TestProcessStream_Journal(t *testing.T) {
	ctx, env := setupTestEnv(t)

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), env.Log)
	if err != nil {
		t.Fatalf("journal.Open() error: %v", err)
	}
	defer j.Close()
	env.Journal = j

	if err := processStream(ctx, strings.NewReader(sampleMarkup), new(bytes.Buffer), env.Log); err != nil {
		t.Fatalf("processStream() error: %v", err)
	}
	entries, err := j.Recent(1)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Recent() = %v, %v", entries, err)
	}
	if entries[0].Source != StdinName || entries[0].Destination != StdinName {
		t.Errorf("unexpected journal entry: %+v", entries[0])
	}
}

func TestWriteOutput_CreatesDirectories(t *testing.T) {
	_, env := setupTestEnv(t)
	name := filepath.Join(t.TempDir(), "a", "b", "c.html")

	err := writeOutput(name, false, env.Log, func(w io.Writer) error {
		_, err := io.WriteString(w, "data")
		return err
	})
	if err != nil {
		t.Fatalf("writeOutput() error: %v", err)
	}
	if readOutput(t, name) != "data" {
		t.Error("unexpected content")
	}
}
