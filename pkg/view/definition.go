package view

import (
	"strings"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/tmpl"
)

// EventHandler reacts to a DOM event delivered through the view's root.
type EventHandler func(*View, *dom.Event)

// Definition declares a view type. A Definition is plain data: construct
// views from it with New, as many as needed, each with its own root element
// and element cache.
//
// All fields are optional. A zero Definition yields a bare div that renders
// to whatever its contents already are.
type Definition struct {
	// Name identifies the view in errors, logs and traces. Defaults to Tag.
	Name string

	// Tag is the root element's tag. Defaults to "div".
	Tag string

	// Attrs are set on the root element at construction.
	Attrs map[string]string

	// Elements maps handle names to selectors, re-resolved against the root
	// subtree on every default render. A leading "$" on a name is purely
	// convention.
	Elements map[string]string

	// Events maps "event selector" keys to handlers, delegated on the root:
	// "click .save" fires for clicks bubbling from .save descendants, while
	// a bare "click" binds directly to the root.
	Events map[string]EventHandler

	// Template produces the compiled template for each render.
	Template tmpl.SourceFunc

	// Data produces the value the template executes against. Nil means the
	// template runs with no data.
	Data tmpl.DataFunc

	// BeforeRender and AfterRender run around every render. An error from
	// either aborts the render and propagates to the caller.
	BeforeRender func(*View) error
	AfterRender  func(*View) error

	// Render replaces the default markup step with arbitrary DOM
	// construction. Hooks still run around it; the element cache is only
	// refreshed if the function calls UpdateElements itself.
	Render func(*View) error
}

// splitEventKey separates "click .item" into type and selector. The
// selector may itself contain spaces. Namespaces on the type are stripped;
// the view manages its own.
func splitEventKey(key string) (typ, selector string) {
	typ, selector, _ = strings.Cut(strings.TrimSpace(key), " ")
	typ, _, _ = strings.Cut(typ, ".")
	return typ, strings.TrimSpace(selector)
}
