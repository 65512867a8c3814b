package rules

import (
	"bsmig/markup"
)

var panelVariants = []string{"default", "primary", "success", "info", "warning", "danger"}

// panel sub-parts, located anywhere in the panel subtree, first match only
var panelParts = []substitution{
	{from: "panel-heading", to: "card-header"},
	{from: "panel-title", to: "card-title"},
	{from: "panel-body", to: "card-body"},
	{from: "panel-footer", to: "card-footer"},
}

var wellSizes = []substitution{
	{from: "well-sm", to: "p-2"},
	{from: "well-lg", to: "p-4"},
}

// Component restructures panels and wells into cards.
type Component struct{}

func (Component) Name() string     { return "Component Migrations" }
func (Component) Kind() ChangeType { return ChangeComponent }
func (Component) Priority() int    { return 3 }

func (c Component) Apply(tree *markup.Tree, sink *Sink) error {
	c.panels(tree, sink)
	c.wells(tree, sink)
	return nil
}

// panels records one change per panel, sub-part changes are part of it.
func (c Component) panels(tree *markup.Tree, sink *Sink) {
	for _, panel := range tree.FindAll("panel") {
		original := panel.ClassName()
		if !panel.ReplaceClass("panel", "card") {
			continue
		}

		for _, v := range panelVariants {
			if v == "default" {
				panel.RemoveClass("panel-default")
				continue
			}
			panel.ReplaceClass("panel-"+v, "border-"+v)
		}

		for _, part := range panelParts {
			if el := panel.Find(part.from); el != nil {
				el.ReplaceClass(part.from, part.to)
			}
		}

		sink.Record(newChange(c, panel, original, panel.ClassName(), "Migrated panel to card structure"))
	}
}

func (c Component) wells(tree *markup.Tree, sink *Sink) {
	for _, well := range tree.FindAll("well") {
		original := well.ClassName()
		if !well.ReplaceClass("well", "card", "card-body") {
			continue
		}
		for _, size := range wellSizes {
			well.ReplaceClass(size.from, size.to)
		}
		sink.Record(newChange(c, well, original, well.ClassName(), "Migrated well to card"))
	}
}
