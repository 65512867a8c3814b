package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"bsmig/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	SourceFile string
	SourceExt  string
	SourceDir  string
	RunID      string
	Rules      []string
	Changes    int
	Date       string
}

func newValues(name config.TemplateFieldName, src, runID string, rules []string, changes int, now time.Time) Values {
	ext := filepath.Ext(src)
	return Values{
		Context:    string(name),
		SourceFile: strings.TrimSuffix(filepath.Base(src), ext),
		SourceExt:  ext,
		SourceDir:  filepath.ToSlash(filepath.Dir(src)),
		RunID:      runID,
		Rules:      rules,
		Changes:    changes,
		Date:       now.Format("2006-01-02"),
	}
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand template field %s: %w", name, err)
	}
	return buf.String(), nil
}
