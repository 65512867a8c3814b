package markup

import (
	"strings"
)

type legacyPattern struct {
	token string
	exact bool
}

func (p legacyPattern) match(class string) bool {
	if p.exact {
		return class == p.token
	}
	return strings.HasPrefix(class, p.token)
}

// Recognizable Bootstrap 3 vocabulary. Informational only, rule sets do not
// use it.
var legacyPatterns = []legacyPattern{
	// grid
	{token: "col-"}, {token: "offset-"}, {token: "row", exact: true}, {token: "container"},
	{token: "pull-"}, {token: "push-"},
	// visibility and text
	{token: "hidden-"}, {token: "visible-"}, {token: "text-"},
	// components
	{token: "btn"}, {token: "panel"}, {token: "well"}, {token: "label"}, {token: "badge"},
	// forms
	{token: "form-"}, {token: "control-"}, {token: "help-"}, {token: "input-"},
	{token: "img-"}, {token: "table-"}, {token: "alert"}, {token: "modal"}, {token: "dropdown"},
	// "nav" covers navbar too
	{token: "nav"}, {token: "breadcrumb"}, {token: "pagination"}, {token: "pager"},
	{token: "thumbnail"}, {token: "media"}, {token: "list-group"}, {token: "carousel"},
	{token: "jumbotron"}, {token: "page-header"}, {token: "progress"},
	{token: "close", exact: true}, {token: "caret", exact: true}, {token: "center-block", exact: true},
}

// LegacyClasses returns tokens of the space separated class string which look
// like legacy framework classes, in their original order.
func LegacyClasses(classes string) []string {
	var out []string
	for _, c := range strings.Fields(classes) {
		for _, p := range legacyPatterns {
			if p.match(c) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
