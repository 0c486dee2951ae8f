package view

import (
	"errors"
	"strings"
	"testing"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/tmpl"
)

func newDisposedView(t *testing.T, doc *dom.Document) *View {
	t.Helper()
	v := New(doc, Definition{
		Template: tmpl.FromString("x", `<p class="msg">hi</p>`),
		Elements: map[string]string{"$msg": ".msg"},
	})
	if err := v.AppendTo("body"); err != nil {
		t.Fatalf("AppendTo() error = %v", err)
	}
	if err := v.Dispose(); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	return v
}

func TestDisposeRemovesRootAndCache(t *testing.T) {
	doc := dom.NewDocument()
	v := newDisposedView(t, doc)

	if v.State() != StateDisposed {
		t.Fatalf("State() = %v, want %v", v.State(), StateDisposed)
	}
	if doc.Find(".msg").Length() != 0 {
		t.Error("rendered content still in the document after Dispose")
	}
	if v.Element("$msg").Length() != 0 {
		t.Error("element cache still populated after Dispose")
	}
	if len(v.Elements()) != 0 {
		t.Error("Elements() not empty after Dispose")
	}
}

func TestDisposeSeversHandlers(t *testing.T) {
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

	btn := v.Root().Find(".go")
	if err := v.Dispose(); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}

	btn.Trigger("click")
	if fired != 0 {
		t.Errorf("handler fired after Dispose; fired = %d", fired)
	}
}

func TestOperationsAfterDisposeFailLoudly(t *testing.T) {
	doc := dom.NewDocument()

	tests := []struct {
		name string
		op   func(*View) error
	}{
		{"render", func(v *View) error { return v.Render() }},
		{"appendTo", func(v *View) error { return v.AppendTo("body") }},
		{"prependTo", func(v *View) error { return v.PrependTo("body") }},
		{"replace", func(v *View) error { return v.Replace("body") }},
		{"updateElements", func(v *View) error { return v.UpdateElements() }},
		{"dispose", func(v *View) error { return v.Dispose() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newDisposedView(t, doc)

			err := tt.op(v)
			if err == nil {
				t.Fatalf("%s on disposed view returned nil", tt.name)
			}
			if !errors.Is(err, ErrDisposed) {
				t.Errorf("error = %v, want wrapped ErrDisposed", err)
			}
			var lerr *LifecycleError
			if !errors.As(err, &lerr) {
				t.Fatalf("error type = %T, want *LifecycleError", err)
			}
			if lerr.Op != tt.name {
				t.Errorf("LifecycleError.Op = %q, want %q", lerr.Op, tt.name)
			}
			if v.State() != StateDisposed {
				t.Errorf("State() = %v, want it to stay %v", v.State(), StateDisposed)
			}
		})
	}
}

func TestDisposeDoesNotCascadeToChildren(t *testing.T) {
	doc := dom.NewDocument()

	child := New(doc, Definition{
		Attrs:    map[string]string{"class": "child"},
		Template: tmpl.FromString("child", `<i>leaf</i>`),
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

	if err := parent.Dispose(); err != nil {
		t.Fatalf("parent.Dispose() error = %v", err)
	}

	// The child leaves the document with the parent's subtree but remains
	// usable; its owner decides when it ends.
	if child.State() != StateRendered {
		t.Errorf("child.State() = %v, want %v", child.State(), StateRendered)
	}
	if child.Root().Connected() {
		t.Error("child root still connected after parent disposal")
	}

	if err := child.AppendTo("body"); err != nil {
		t.Fatalf("child.AppendTo(body) after parent disposal error = %v", err)
	}
	if doc.Find("body .child i").Length() != 1 {
		t.Error("child did not re-attach after parent disposal")
	}
}

func TestLifecycleErrorMessage(t *testing.T) {
	doc := dom.NewDocument()
	v := New(doc, Definition{Name: "profile"})
	if err := v.Dispose(); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}

	err := v.Render()
	if err == nil {
		t.Fatal("Render() on disposed view returned nil")
	}
	for _, want := range []string{"render", "profile", "disposed"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}
