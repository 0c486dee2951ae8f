package viewtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/tmpl"
	"github.com/loom-ui/loom/pkg/view"
)

// ViewBuilder allows fluent construction of test views.
type ViewBuilder struct {
	doc *dom.Document
	def view.Definition
}

// NewView creates a new view builder for testing. The view is built against
// a fresh empty document unless WithDocument overrides it.
//
// Example:
//
//	v := viewtest.NewView().
//	    WithTemplate(`<p class="msg">Hello {{.Name}}</p>`).
//	    WithData(member{Name: "Matt"}).
//	    WithElement("$msg", ".msg").
//	    Rendered(t)
func NewView() *ViewBuilder {
	return &ViewBuilder{doc: dom.NewDocument()}
}

// WithDocument builds the view against an existing document.
func (b *ViewBuilder) WithDocument(doc *dom.Document) *ViewBuilder {
	b.doc = doc
	return b
}

// WithName sets the view name used in errors and logs.
func (b *ViewBuilder) WithName(name string) *ViewBuilder {
	b.def.Name = name
	return b
}

// WithTag sets the root element tag.
func (b *ViewBuilder) WithTag(tag string) *ViewBuilder {
	b.def.Tag = tag
	return b
}

// WithAttr sets an attribute on the root element.
func (b *ViewBuilder) WithAttr(name, value string) *ViewBuilder {
	if b.def.Attrs == nil {
		b.def.Attrs = make(map[string]string)
	}
	b.def.Attrs[name] = value
	return b
}

// WithTemplate sets the markup template from an inline source.
func (b *ViewBuilder) WithTemplate(src string) *ViewBuilder {
	b.def.Template = tmpl.FromString("viewtest", src)
	return b
}

// WithTemplateFunc sets the template producer directly.
func (b *ViewBuilder) WithTemplateFunc(fn tmpl.SourceFunc) *ViewBuilder {
	b.def.Template = fn
	return b
}

// WithData sets a fixed value for the template to execute against.
func (b *ViewBuilder) WithData(v any) *ViewBuilder {
	b.def.Data = tmpl.StaticData(v)
	return b
}

// WithDataFunc sets the data producer directly.
func (b *ViewBuilder) WithDataFunc(fn tmpl.DataFunc) *ViewBuilder {
	b.def.Data = fn
	return b
}

// WithElement declares a named element handle.
func (b *ViewBuilder) WithElement(name, selector string) *ViewBuilder {
	if b.def.Elements == nil {
		b.def.Elements = make(map[string]string)
	}
	b.def.Elements[name] = selector
	return b
}

// WithEvent binds a delegated event handler. The key uses the
// "event selector" form, e.g. "click .save".
func (b *ViewBuilder) WithEvent(key string, fn view.EventHandler) *ViewBuilder {
	if b.def.Events == nil {
		b.def.Events = make(map[string]view.EventHandler)
	}
	b.def.Events[key] = fn
	return b
}

// Build constructs the view. It is detached and unrendered; use Attached or
// Rendered for the common cases.
func (b *ViewBuilder) Build() *view.View {
	return view.New(b.doc, b.def)
}

// Attached constructs the view and appends its root to the document body.
func (b *ViewBuilder) Attached(tb testing.TB) *view.View {
	tb.Helper()
	v := b.Build()
	if err := v.AppendTo("body"); err != nil {
		tb.Fatalf("attach view: %v", err)
	}
	return v
}

// Rendered constructs the view, attaches it to the body and renders it once.
func (b *ViewBuilder) Rendered(tb testing.TB) *view.View {
	tb.Helper()
	v := b.Attached(tb)
	if err := v.Render(); err != nil {
		tb.Fatalf("render view: %v", err)
	}
	return v
}

// Rendered is a shorthand for
// NewView().WithTemplate(src).WithData(data).Rendered(tb).
//
// Example:
//
//	v := viewtest.Rendered(t, `<h1>{{.}}</h1>`, "Reports")
func Rendered(tb testing.TB, src string, data any) *view.View {
	tb.Helper()
	return NewView().WithTemplate(src).WithData(data).Rendered(tb)
}

// RenderToString returns the view's current root markup.
// This is useful for asserting on rendered output.
//
// Example:
//
//	html := viewtest.RenderToString(v)
//	if !strings.Contains(html, "expected text") {
//	    t.Error("missing expected text")
//	}
func RenderToString(v *view.View) string {
	return v.Root().OuterHTML()
}

// ExpectContains asserts that the view's markup contains expected substring.
//
// Example:
//
//	viewtest.ExpectContains(t, v, "Welcome Admin")
func ExpectContains(t *testing.T, v *view.View, expected string) {
	t.Helper()
	html := RenderToString(v)
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the view's markup does not contain substring.
//
// Example:
//
//	viewtest.ExpectNotContains(t, v, "Error")
func ExpectNotContains(t *testing.T, v *view.View, unexpected string) {
	t.Helper()
	html := RenderToString(v)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectText asserts on the view's text content rather than its markup, so
// the expectation is unaffected by template escaping.
//
// Example:
//
//	viewtest.ExpectText(t, v, "Tom & Jerry")
func ExpectText(t *testing.T, v *view.View, expected string) {
	t.Helper()
	text := v.Root().Text()
	if !strings.Contains(text, expected) {
		t.Errorf("expected rendered text to contain %q, got:\n%s", expected, truncate(text, 500))
	}
}

// ExpectElement asserts that the named element handle resolved to at least
// one node in the last render.
//
// Example:
//
//	viewtest.ExpectElement(t, v, "$msg")
func ExpectElement(t *testing.T, v *view.View, name string) {
	t.Helper()
	if v.Element(name).Length() == 0 {
		t.Errorf("expected element handle %q to resolve, got an empty selection in:\n%s",
			name, truncate(RenderToString(v), 500))
	}
}

// ExpectAttribute asserts that the root or one of its descendants carries
// the attribute value.
//
// Example:
//
//	viewtest.ExpectAttribute(t, v, "class", "btn-primary")
func ExpectAttribute(t *testing.T, v *view.View, attr, value string) {
	t.Helper()
	selector := fmt.Sprintf("[%s=%q]", attr, value)
	if v.Root().Is(selector) || v.Root().Find(selector).Length() > 0 {
		return
	}
	t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(RenderToString(v), 500))
}

// ExpectState asserts the view's lifecycle state.
//
// Example:
//
//	viewtest.ExpectState(t, v, view.StateRendered)
func ExpectState(t *testing.T, v *view.View, want view.State) {
	t.Helper()
	if got := v.State(); got != want {
		t.Errorf("view state = %v, want %v", got, want)
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
