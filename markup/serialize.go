package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const indentUnit = "  "

var (
	interTagSpace = regexp.MustCompile(`>\s+<`)
	openingTag    = regexp.MustCompile(`^<([\w-]+)`)
)

// Elements which never increase indentation even when written without
// self-closing slash.
var flatElements = map[string]bool{
	"img": true, "br": true, "hr": true, "input": true, "meta": true, "link": true,
}

// Serialize renders content of the fragment (never a document wrapper) and
// reformats it, one tag per line, indented by nesting depth.
func Serialize(t *Tree) (string, error) {
	var buf bytes.Buffer
	for c := t.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("unable to render fragment: %w", err)
		}
	}
	return Format(buf.String()), nil
}

// Format collapses whitespace between tags and re-indents markup. Depth is
// decreased before any line starting with closing tag and increased after
// opening tag which is not void and is not closed on the same line.
func Format(src string) string {
	src = interTagSpace.ReplaceAllString(src, ">\n<")

	var (
		depth int
		out   = make([]string, 0, strings.Count(src, "\n")+1)
	)
	for line := range strings.SplitSeq(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}

		if strings.HasPrefix(trimmed, "</") {
			depth = max(0, depth-1)
		}
		out = append(out, strings.Repeat(indentUnit, depth)+trimmed)

		if !strings.HasPrefix(trimmed, "<") || strings.HasPrefix(trimmed, "</") || strings.HasSuffix(trimmed, "/>") {
			continue
		}
		m := openingTag.FindStringSubmatch(trimmed)
		if m == nil {
			// comments, doctype and such
			continue
		}
		if tag := m[1]; !flatElements[strings.ToLower(tag)] && !strings.Contains(trimmed, "</"+tag+">") {
			depth++
		}
	}
	return strings.Join(out, "\n")
}
