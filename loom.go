// Package loom provides the public API for the loom view framework.
//
// This is the recommended import for most applications:
//
//	import "github.com/loom-ui/loom"
//
// Usage:
//
//	doc := loom.NewDocument()
//	v := loom.NewView(doc, loom.Definition{
//	    Template: loom.FromString("greeting", `<p class="msg">Hello {{.Name}}</p>`),
//	    Data:     loom.StaticData(map[string]string{"Name": "Matt"}),
//	    Elements: map[string]string{"$msg": ".msg"},
//	})
//	_ = v.AppendTo("body")
//	v.Element("$msg").Text() // "Hello Matt"
package loom

import (
	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/live"
	"github.com/loom-ui/loom/pkg/tmpl"
	"github.com/loom-ui/loom/pkg/view"
)

// =============================================================================
// Views (re-export from pkg/view)
// =============================================================================

// View is one node in a view composition tree. It owns a root element, an
// element cache and the event bindings declared by its Definition.
type View = view.View

// Definition declares a view type: root tag, element selectors, event
// bindings, template and data producers, render hooks.
type Definition = view.Definition

// EventHandler reacts to a DOM event delivered through a view's root.
type EventHandler = view.EventHandler

// State is a view's lifecycle state.
type State = view.State

// Lifecycle states. Views move Unrendered -> Rendered -> Disposed;
// Disposed is terminal.
const (
	StateUnrendered = view.StateUnrendered
	StateRendered   = view.StateRendered
	StateDisposed   = view.StateDisposed
)

// NewView constructs a view from a definition. The root element is created
// detached in doc; attach it with AppendTo, PrependTo or Replace.
//
// Example:
//
//	v := loom.NewView(doc, loom.Definition{
//	    Tag:    "article",
//	    Events: map[string]loom.EventHandler{
//	        "click .save": func(v *loom.View, e *loom.Event) { ... },
//	    },
//	})
func NewView(doc *dom.Document, def Definition) *View {
	return view.New(doc, def)
}

// =============================================================================
// Documents (re-export from pkg/dom)
// =============================================================================

// Document owns one HTML tree and its event registry. A document and every
// view inside it belong to a single goroutine.
type Document = dom.Document

// Selection addresses zero or more elements in a document.
type Selection = dom.Selection

// Event is a dispatched DOM event.
type Event = dom.Event

// NewDocument returns an empty document shell (html/head/body).
func NewDocument() *Document {
	return dom.NewDocument()
}

// ParseDocument parses a full HTML document.
func ParseDocument(source string) (*Document, error) {
	return dom.ParseDocument(source)
}

// =============================================================================
// Templates (re-export from pkg/tmpl)
// =============================================================================

// SourceFunc produces the compiled template for a render.
type SourceFunc = tmpl.SourceFunc

// DataFunc produces the value a template executes against.
type DataFunc = tmpl.DataFunc

// Store loads named templates from a backing source.
type Store = tmpl.Store

// FromString compiles src once and reuses the result on every render.
var FromString = tmpl.FromString

// StaticData returns a DataFunc that always yields v.
var StaticData = tmpl.StaticData

// Producer adapts a store entry to a SourceFunc.
var Producer = tmpl.Producer

// Store constructors and options.
var (
	NewMemStore  = tmpl.NewMemStore
	NewDirStore  = tmpl.NewDirStore
	NewS3Store   = tmpl.NewS3Store
	WithPrefix   = tmpl.WithPrefix
	WithFuncs    = tmpl.WithFuncs
	WithoutCache = tmpl.WithoutCache
)

// StoreOption adjusts store construction.
type StoreOption = tmpl.StoreOption

// =============================================================================
// Errors
// =============================================================================

// ErrDisposed reports an operation on a disposed view.
var ErrDisposed = view.ErrDisposed

// ErrBadTarget reports an attach target that is neither a selector string
// nor a *Selection.
var ErrBadTarget = view.ErrBadTarget

// LifecycleError wraps ErrDisposed with the view and operation involved.
type LifecycleError = view.LifecycleError

// TemplateError reports a failed template resolution: which template,
// which step and the underlying cause.
type TemplateError = tmpl.Error

// =============================================================================
// Live sessions (re-export from pkg/live)
// =============================================================================

// EventCtx carries one client event through the dispatch chain.
type EventCtx = live.EventCtx

// EventFunc handles one client event.
type EventFunc = live.EventFunc

// Middleware wraps event dispatch with cross-cutting behavior. Register
// with App.Use.
type Middleware = live.Middleware

// Stats is a snapshot of one session's counters.
type Stats = live.Stats
