// Package viewtest provides testing helpers for loom views.
//
// The viewtest package reduces boilerplate when testing views by providing
// a fluent view builder, render assertions and event simulation.
//
// # Quick Start
//
//	func TestGreeting(t *testing.T) {
//	    v := viewtest.Rendered(t, `<p class="msg">Hello {{.}}</p>`, "Matt")
//	    viewtest.ExpectContains(t, v, "Hello Matt")
//	}
//
// # Fluent View Builder
//
// The view builder allows chaining the pieces of a Definition:
//
//	v := viewtest.NewView().
//	    WithTag("section").
//	    WithTemplate(`<h1>{{.Title}}</h1><ul class="items"></ul>`).
//	    WithData(page{Title: "Reports"}).
//	    WithElement("$items", ".items").
//	    WithEvent("click h1", onTitleClick).
//	    Rendered(t)
//
// Build returns the view detached and unrendered for lifecycle tests;
// Attached appends it to the body without rendering; Rendered does both.
//
// # Render Assertions
//
// Assert on rendered output:
//
//	viewtest.ExpectContains(t, v, "Welcome Admin")
//	viewtest.ExpectNotContains(t, v, "Login")
//	viewtest.ExpectElement(t, v, "$msg")
//	viewtest.ExpectAttribute(t, v, "class", "btn-primary")
//
// # Event Simulation
//
// Fire events through the document the way the browser would, including
// bubbling to delegated handlers:
//
//	viewtest.Click(t, v, ".save")
//	viewtest.Fire(t, v, "input", ".title", map[string]any{"value": "Draft"})
//
// # Lifecycle Assertions
//
// Check where a view is in its lifecycle, including the terminal state:
//
//	viewtest.ExpectState(t, v, view.StateRendered)
//	v.Dispose()
//	viewtest.ExpectDisposed(t, v)
package viewtest
