package rules

import (
	"bsmig/markup"
)

const (
	formGroup      = "form-group"
	formGroupBS5   = "mb-3"
	formHorizontal = "form-horizontal"
)

var formSubstitutions = []substitution{
	{from: formGroup, to: formGroupBS5},
	{from: "control-label", to: "form-label"},
	{from: "help-block", to: "form-text"},
	{from: "input-lg", to: "form-control-lg"},
	{from: "input-sm", to: "form-control-sm"},
	{from: "form-control-feedback", to: "invalid-feedback"},
	{from: "has-success", to: "was-validated"},
	{from: "has-error", to: "was-validated"},
	{from: "has-warning", to: "was-validated"},
}

// Form migrates form control classes. Groups of horizontal forms also become
// grid rows.
type Form struct{}

func (Form) Name() string     { return "Form Controls" }
func (Form) Kind() ChangeType { return ChangeForm }
func (Form) Priority() int    { return 4 }

func (f Form) Apply(tree *markup.Tree, sink *Sink) error {
	var groups []*markup.Element
	substitute(tree, sink, f, formSubstitutions, describeReplacement, func(s substitution, el *markup.Element) {
		if s.from == formGroup {
			groups = append(groups, el)
		}
	})
	if len(groups) == 0 {
		return nil
	}

	for _, form := range tree.FindAll(formHorizontal) {
		for _, group := range groups {
			if !form.Contains(group) {
				continue
			}
			original := group.ClassName()
			if !group.AddClass("row") {
				continue
			}
			sink.Record(newChange(f, group, original, group.ClassName(), "Added row class to horizontal form group"))
		}
	}
	return nil
}
