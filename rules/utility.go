package rules

import (
	"fmt"

	"bsmig/markup"
)

var utilitySubstitutions = []substitution{
	{from: "pull-right", to: "float-end"},
	{from: "pull-left", to: "float-start"},
	{from: "text-right", to: "text-end"},
	{from: "text-left", to: "text-start"},
	{from: "center-block", to: "mx-auto d-block"},
	{from: "text-justify", to: "text-justify"}, // removed in BS5, kept as is
	{from: "text-nowrap", to: "text-nowrap"},
	{from: "text-lowercase", to: "text-lowercase"},
	{from: "text-uppercase", to: "text-uppercase"},
	{from: "text-capitalize", to: "text-capitalize"},
}

// Responsive visibility classes expand into display utilities reproducing
// the same behavior in the new breakpoint vocabulary.
var visibilitySubstitutions = []substitution{
	{from: "hidden-xs", to: "d-none d-sm-block"},
	{from: "hidden-sm", to: "d-sm-none d-md-block"},
	{from: "hidden-md", to: "d-md-none d-lg-block"},
	{from: "hidden-lg", to: "d-lg-none d-xl-block"},
	{from: "hidden-xl", to: "d-xl-none"},
	{from: "visible-xs", to: "d-block d-sm-none"},
	{from: "visible-xs-block", to: "d-block d-sm-none"},
	{from: "visible-xs-inline", to: "d-inline d-sm-none"},
	{from: "visible-xs-inline-block", to: "d-inline-block d-sm-none"},
	{from: "visible-sm", to: "d-none d-sm-block d-md-none"},
	{from: "visible-sm-block", to: "d-none d-sm-block d-md-none"},
	{from: "visible-sm-inline", to: "d-none d-sm-inline d-md-none"},
	{from: "visible-sm-inline-block", to: "d-none d-sm-inline-block d-md-none"},
	{from: "visible-md", to: "d-none d-md-block d-lg-none"},
	{from: "visible-md-block", to: "d-none d-md-block d-lg-none"},
	{from: "visible-md-inline", to: "d-none d-md-inline d-lg-none"},
	{from: "visible-md-inline-block", to: "d-none d-md-inline-block d-lg-none"},
	{from: "visible-lg", to: "d-none d-lg-block d-xl-none"},
	{from: "visible-lg-block", to: "d-none d-lg-block d-xl-none"},
	{from: "visible-lg-inline", to: "d-none d-lg-inline d-xl-none"},
	{from: "visible-lg-inline-block", to: "d-none d-lg-inline-block d-xl-none"},
}

// Utility migrates float, alignment and responsive visibility utilities.
type Utility struct{}

func (Utility) Name() string     { return "Utility Classes" }
func (Utility) Kind() ChangeType { return ChangeUtility }
func (Utility) Priority() int    { return 2 }

func (u Utility) Apply(tree *markup.Tree, sink *Sink) error {
	substitute(tree, sink, u, utilitySubstitutions, describeReplacement, nil)
	substitute(tree, sink, u, visibilitySubstitutions, func(from, to string) string {
		return fmt.Sprintf("Replaced visibility class '%s' with '%s'", from, to)
	}, nil)
	return nil
}
