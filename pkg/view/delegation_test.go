package view

import (
	"testing"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/tmpl"
)

func TestDelegatedHandlerFires(t *testing.T) {
	doc := dom.NewDocument()

	clicks := 0
	v := New(doc, Definition{
		Template: tmpl.FromString("x", `<button class="go">go</button>`),
		Events: map[string]EventHandler{
			"click .go": func(v *View, e *dom.Event) {
				clicks++
				if !e.Current.Is(".go") {
					t.Error("handler fired with the wrong current element")
				}
			},
		},
	})

	if err := v.AppendTo("body"); err != nil {
		t.Fatalf("AppendTo() error = %v", err)
	}

	doc.Find(".go").Trigger("click")
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}
}

func TestRootHandlerWithoutSelector(t *testing.T) {
	doc := dom.NewDocument()

	fired := 0
	v := New(doc, Definition{
		Template: tmpl.FromString("x", `<span class="inner"></span>`),
		Events: map[string]EventHandler{
			"click": func(*View, *dom.Event) { fired++ },
		},
	})
	if err := v.AppendTo("body"); err != nil {
		t.Fatalf("AppendTo() error = %v", err)
	}

	// Direct root bindings fire both on the root and for bubbling events.
	v.Root().Trigger("click")
	doc.Find(".inner").Trigger("click")
	if fired != 2 {
		t.Errorf("fired = %d, want 2", fired)
	}
}

func TestHandlerFiresWhileDetached(t *testing.T) {
	doc := dom.NewDocument()

	fired := 0
	v := New(doc, Definition{
		Template: tmpl.FromString("x", `<button class="go"></button>`),
		Events: map[string]EventHandler{
			"click .go": func(*View, *dom.Event) { fired++ },
		},
	})
	if err := v.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	v.Root().Find(".go").Trigger("click")
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}

func TestParentRerenderSeversChildDelegation(t *testing.T) {
	doc := dom.NewDocument()

	clicks := 0
	child := New(doc, Definition{
		Attrs:    map[string]string{"class": "child"},
		Template: tmpl.FromString("child", `<button class="go">go</button>`),
		Events: map[string]EventHandler{
			"click .go": func(*View, *dom.Event) { clicks++ },
		},
	})
	parent := New(doc, Definition{
		Template: tmpl.FromString("parent", `<div class="slot"></div>`),
		Elements: map[string]string{"$slot": ".slot"},
	})

	if err := parent.AppendTo("body"); err != nil {
		t.Fatalf("parent.AppendTo() error = %v", err)
	}
	if err := child.AppendTo(parent.Element("$slot")); err != nil {
		t.Fatalf("child.AppendTo() error = %v", err)
	}

	doc.Find(".go").Trigger("click")
	if clicks != 1 {
		t.Fatalf("clicks after first attach = %d, want 1", clicks)
	}

	// Re-rendering the parent discards its subtree, child root included,
	// which severs the child's delegated bindings.
	if err := parent.Render(); err != nil {
		t.Fatalf("parent.Render() error = %v", err)
	}
	if doc.Find(".child").Length() != 0 {
		t.Fatal("child root survived the parent re-render")
	}
	child.Root().Find(".go").Trigger("click")
	if clicks != 1 {
		t.Fatalf("severed handler fired; clicks = %d, want 1", clicks)
	}

	// Re-attaching re-delegates. The handler fires exactly once per
	// trigger: never zero, never doubled.
	if err := child.AppendTo(parent.Element("$slot")); err != nil {
		t.Fatalf("child re-AppendTo() error = %v", err)
	}
	doc.Find(".go").Trigger("click")
	if clicks != 2 {
		t.Errorf("clicks after re-attach = %d, want 2", clicks)
	}
}

func TestDelegateEventsNeverStacks(t *testing.T) {
	doc := dom.NewDocument()

	fired := 0
	v := New(doc, Definition{
		Template: tmpl.FromString("x", `<button class="go"></button>`),
		Events: map[string]EventHandler{
			"click .go": func(*View, *dom.Event) { fired++ },
		},
	})
	if err := v.AppendTo("body"); err != nil {
		t.Fatalf("AppendTo() error = %v", err)
	}

	v.DelegateEvents()
	v.DelegateEvents()
	v.DelegateEvents()

	doc.Find(".go").Trigger("click")
	if fired != 1 {
		t.Errorf("fired = %d, want exactly 1", fired)
	}
}

func TestUndelegateEventsLeavesOtherOwners(t *testing.T) {
	doc := dom.NewDocument()

	viewFired, otherFired := 0, 0
	v := New(doc, Definition{
		Template: tmpl.FromString("x", `<button class="go"></button>`),
		Events: map[string]EventHandler{
			"click .go": func(*View, *dom.Event) { viewFired++ },
		},
	})
	if err := v.AppendTo("body"); err != nil {
		t.Fatalf("AppendTo() error = %v", err)
	}

	// Someone else binds on the same root outside the view's namespace.
	v.Root().On("click.elsewhere", ".go", func(*dom.Event) { otherFired++ })

	v.UndelegateEvents()
	doc.Find(".go").Trigger("click")

	if viewFired != 0 {
		t.Errorf("view handler fired after UndelegateEvents; got %d", viewFired)
	}
	if otherFired != 1 {
		t.Errorf("foreign binding removed; otherFired = %d, want 1", otherFired)
	}
}

func TestEventKeySplitting(t *testing.T) {
	tests := []struct {
		key          string
		wantTyp      string
		wantSelector string
	}{
		{"click .go", "click", ".go"},
		{"click", "click", ""},
		{"submit form .inner", "submit", "form .inner"},
		{"  change   input.name ", "change", "input.name"},
		{"click.ns .go", "click", ".go"},
		{"", "", ""},
	}

	for _, tt := range tests {
		typ, selector := splitEventKey(tt.key)
		if typ != tt.wantTyp || selector != tt.wantSelector {
			t.Errorf("splitEventKey(%q) = (%q, %q), want (%q, %q)",
				tt.key, typ, selector, tt.wantTyp, tt.wantSelector)
		}
	}
}

func TestHandlerReceivesView(t *testing.T) {
	doc := dom.NewDocument()

	var gotView *View
	v := New(doc, Definition{
		Name:     "card",
		Template: tmpl.FromString("x", `<button class="go"></button>`),
		Events: map[string]EventHandler{
			"click .go": func(hv *View, _ *dom.Event) { gotView = hv },
		},
	})
	if err := v.AppendTo("body"); err != nil {
		t.Fatalf("AppendTo() error = %v", err)
	}

	doc.Find(".go").Trigger("click")
	if gotView != v {
		t.Error("handler did not receive its own view")
	}
}
