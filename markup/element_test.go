package markup

import (
	"slices"
	"testing"
)

func firstElement(t *testing.T, src string) *Element {
	t.Helper()

	roots := mustParse(t, src).Tree.Roots()
	if len(roots) == 0 {
		t.Fatalf("no elements in %q", src)
	}
	return roots[0]
}

func TestElement_Classes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{name: "no attribute", src: `<div></div>`, want: nil},
		{name: "empty attribute", src: `<div class=""></div>`, want: []string{}},
		{name: "whitespace", src: "<div class=\"  a \t b\n c \"></div>", want: []string{"a", "b", "c"}},
		{name: "duplicates", src: `<div class="a b a c b"></div>`, want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := firstElement(t, tt.src)
			if got := el.Classes(); !slices.Equal(got, tt.want) {
				t.Errorf("Classes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestElement_ReplaceClass(t *testing.T) {
	tests := []struct {
		name    string
		classes string
		old     string
		repl    []string
		want    string
		changed bool
	}{
		{name: "keeps position", classes: "col-xs-12 col-md-8", old: "col-xs-12", repl: []string{"col-12"}, want: "col-12 col-md-8", changed: true},
		{name: "one to many", classes: "x well y", old: "well", repl: []string{"card", "card-body"}, want: "x card card-body y", changed: true},
		{name: "no duplicates", classes: "badge label-danger", old: "label-danger", repl: []string{"badge", "bg-danger"}, want: "badge bg-danger", changed: true},
		{name: "identity", classes: "a text-muted b", old: "text-muted", repl: []string{"text-muted"}, want: "a text-muted b", changed: true},
		{name: "absent", classes: "a b", old: "c", repl: []string{"d"}, want: "a b", changed: false},
		{name: "empty replacement", classes: "a b c", old: "b", repl: []string{""}, want: "a c", changed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := firstElement(t, `<div class="`+tt.classes+`"></div>`)
			if got := el.ReplaceClass(tt.old, tt.repl...); got != tt.changed {
				t.Errorf("ReplaceClass() = %v, want %v", got, tt.changed)
			}
			if got := el.ClassName(); got != tt.want {
				t.Errorf("ClassName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestElement_AddRemoveClass(t *testing.T) {
	el := firstElement(t, `<div id="x" class="a"></div>`)

	if !el.AddClass("b", "a", "c") {
		t.Error("AddClass() reported no change")
	}
	if el.AddClass("a", "b") {
		t.Error("AddClass() of present tokens reported change")
	}
	if got := el.ClassName(); got != "a b c" {
		t.Errorf("ClassName() = %q, want %q", got, "a b c")
	}
	if !el.RemoveClass("b") || el.RemoveClass("b") {
		t.Error("RemoveClass() must report presence exactly once")
	}
	if got := el.ClassName(); got != "a c" {
		t.Errorf("ClassName() = %q, want %q", got, "a c")
	}
	if el.ID() != "x" {
		t.Errorf("ID() = %q, other attributes must not change", el.ID())
	}
}

func TestElement_AddClassCreatesAttribute(t *testing.T) {
	el := firstElement(t, `<div data-x="1"></div>`)
	el.AddClass("row")

	if v, ok := el.Attr("class"); !ok || v != "row" {
		t.Errorf("class attribute = %q (%v), want \"row\"", v, ok)
	}
	if v, _ := el.Attr("data-x"); v != "1" {
		t.Errorf("data-x = %q, want 1", v)
	}
}

func TestElement_FindAndContains(t *testing.T) {
	doc := mustParse(t, `<div class="panel"><div class="inner"><h3 class="panel-title">a</h3></div><h3 class="panel-title">b</h3></div><p class="panel-title">c</p>`)

	panel := doc.Tree.FindAll("panel")[0]
	title := panel.Find("panel-title")
	if title == nil || title.Parent().ClassName() != "inner" {
		t.Fatal("Find() must return first descendant in document order")
	}
	if got := len(panel.FindAll("panel-title")); got != 2 {
		t.Errorf("FindAll() = %d elements, want 2 (outside element must not match)", got)
	}
	if got := len(doc.Tree.FindAll("panel-title")); got != 3 {
		t.Errorf("Tree.FindAll() = %d elements, want 3", got)
	}
	if !panel.Contains(title) {
		t.Error("Contains() = false for descendant")
	}
	outside := doc.Tree.Roots()[1]
	if panel.Contains(outside) || panel.Contains(panel) {
		t.Error("Contains() = true for non descendant")
	}
	if panel.Find("missing") != nil {
		t.Error("Find() of absent token must return nil")
	}
}

func TestTree_SnapshotSurvivesMutation(t *testing.T) {
	doc := mustParse(t, `<i class="a"></i><i class="a"></i><i class="a"></i>`)

	matches := doc.Tree.FindAll("a")
	for _, el := range matches {
		el.ReplaceClass("a", "b")
	}
	if len(matches) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(matches))
	}
	if got := len(doc.Tree.FindAll("b")); got != 3 {
		t.Errorf("FindAll(b) = %d, want 3", got)
	}
}
