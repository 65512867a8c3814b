package rules

import (
	"bsmig/markup"
)

// Entries mapping token to itself did not change between versions, they are
// listed for completeness and never produce changes.
var classMap = []substitution{
	// buttons
	{from: "btn-default", to: "btn-secondary"},
	{from: "btn-xs", to: "btn-sm"},

	// images
	{from: "img-responsive", to: "img-fluid"},
	{from: "img-circle", to: "rounded-circle"},
	{from: "img-rounded", to: "rounded"},

	// tables
	{from: "table-condensed", to: "table-sm"},

	// typography
	{from: "text-muted", to: "text-muted"},
	{from: "text-primary", to: "text-primary"},
	{from: "text-success", to: "text-success"},
	{from: "text-info", to: "text-info"},
	{from: "text-warning", to: "text-warning"},
	{from: "text-danger", to: "text-danger"},

	// contextual backgrounds
	{from: "bg-primary", to: "bg-primary"},
	{from: "bg-success", to: "bg-success"},
	{from: "bg-info", to: "bg-info"},
	{from: "bg-warning", to: "bg-warning"},
	{from: "bg-danger", to: "bg-danger"},

	{from: "close", to: "btn-close"},

	// screen readers
	{from: "sr-only", to: "visually-hidden"},
	{from: "sr-only-focusable", to: "visually-hidden-focusable"},

	// responsive embeds
	{from: "embed-responsive", to: "ratio"},
	{from: "embed-responsive-16by9", to: "ratio-16x9"},
	{from: "embed-responsive-4by3", to: "ratio-4x3"},
	{from: "embed-responsive-item", to: "ratio-item"},

	// input groups
	{from: "input-group-addon", to: "input-group-text"},
	{from: "input-group-btn", to: "input-group-text"},

	// navbar
	{from: "navbar-right", to: "ms-auto"},
	{from: "navbar-left", to: "me-auto"},
	{from: "navbar-fixed-top", to: "fixed-top"},
	{from: "navbar-fixed-bottom", to: "fixed-bottom"},
	{from: "navbar-static-top", to: "sticky-top"},
	{from: "navbar-toggle", to: "navbar-toggler"},
	{from: "navbar-default", to: "navbar-light bg-light"},

	{from: "breadcrumb-item", to: "breadcrumb-item"},
	{from: "pagination-lg", to: "pagination-lg"},
	{from: "pagination-sm", to: "pagination-sm"},

	// media objects
	{from: "media", to: "d-flex"},
	{from: "media-body", to: "flex-grow-1"},
	{from: "media-left", to: "me-3"},
	{from: "media-right", to: "ms-3"},

	// cards, panels are handled by Component
	{from: "card-block", to: "card-body"},
	{from: "card-title", to: "card-title"},
	{from: "card-text", to: "card-text"},
	{from: "card-link", to: "card-link"},

	// removed in BS5, closest utility combination
	{from: "jumbotron", to: "bg-light p-5 rounded"},
	{from: "jumbotron-fluid", to: "bg-light p-5"},
	{from: "page-header", to: "border-bottom pb-2 mb-3"},

	{from: "thumbnail", to: "card"},
	{from: "list-group-item-action", to: "list-group-item-action"},

	// labels became badges
	{from: "label", to: "badge"},
	{from: "label-default", to: "badge bg-secondary"},
	{from: "label-primary", to: "badge bg-primary"},
	{from: "label-success", to: "badge bg-success"},
	{from: "label-info", to: "badge bg-info"},
	{from: "label-warning", to: "badge bg-warning"},
	{from: "label-danger", to: "badge bg-danger"},

	{from: "alert-dismissible", to: "alert-dismissible"},
	{from: "progress-bar-striped", to: "progress-bar-striped"},
	{from: "progress-bar-animated", to: "progress-bar-animated"},
	{from: "modal-sm", to: "modal-sm"},
	{from: "modal-lg", to: "modal-lg"},

	// carousel
	{from: "carousel-inner", to: "carousel-inner"},
	{from: "carousel-item", to: "carousel-item"},
	{from: "carousel-control-prev", to: "carousel-control-prev"},
	{from: "carousel-control-next", to: "carousel-control-next"},

	// dropdowns
	{from: "dropdown-menu-right", to: "dropdown-menu-end"},
	{from: "dropdown-menu-left", to: "dropdown-menu-start"},

	// popovers and tooltips
	{from: "popover", to: "popover"},
	{from: "tooltip", to: "tooltip"},
}

// ClassMap is the catch-all of simple token substitutions, runs last.
type ClassMap struct{}

func (ClassMap) Name() string     { return "Simple Class Mappings" }
func (ClassMap) Kind() ChangeType { return ChangeClassMap }
func (ClassMap) Priority() int    { return 5 }

func (m ClassMap) Apply(tree *markup.Tree, sink *Sink) error {
	substitute(tree, sink, m, classMap, describeReplacement, nil)
	return nil
}
