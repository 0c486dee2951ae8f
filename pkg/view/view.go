package view

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/tmpl"
)

// viewSeq numbers views process-wide so every view gets a distinct event
// namespace.
var viewSeq atomic.Uint64

// View is one node in a composition tree: a root element, the rendered
// subtree beneath it, a cache of named element handles and the delegated
// event bindings declared by its Definition.
//
// Views are not safe for concurrent use; they belong to the goroutine that
// owns their document.
type View struct {
	id       string
	def      Definition
	doc      *dom.Document
	root     *dom.Selection
	state    State
	elements map[string]*dom.Selection
}

// New constructs an unrendered view from def. The root element is created
// detached; attach it with AppendTo, PrependTo or Replace, or render in
// place with Render. Event delegation is established immediately, so
// handlers fire even while the view is detached.
func New(doc *dom.Document, def Definition) *View {
	if def.Tag == "" {
		def.Tag = "div"
	}
	if def.Name == "" {
		def.Name = def.Tag
	}

	root := doc.CreateElement(def.Tag)
	for name, val := range def.Attrs {
		root.SetAttr(name, val)
	}

	v := &View{
		id:       "v" + strconv.FormatUint(viewSeq.Add(1), 10),
		def:      def,
		doc:      doc,
		root:     root,
		elements: make(map[string]*dom.Selection),
	}
	v.DelegateEvents()
	return v
}

// ============================================================================
// Accessors
// ============================================================================

// ID returns the view's process-unique identifier.
func (v *View) ID() string {
	return v.id
}

// Name returns the Definition's diagnostic name.
func (v *View) Name() string {
	return v.def.Name
}

// State returns the lifecycle state.
func (v *View) State() State {
	return v.state
}

// Document returns the owning document.
func (v *View) Document() *dom.Document {
	return v.doc
}

// Root returns the root element. The selection stays valid for the view's
// whole life: re-renders replace the subtree, never the root itself.
func (v *View) Root() *dom.Selection {
	return v.root
}

// Element returns the cached handle resolved at the last render or refresh.
// Unknown names and selectors that matched nothing both yield an empty
// selection, so callers probe with Length rather than nil checks.
func (v *View) Element(name string) *dom.Selection {
	if sel, ok := v.elements[name]; ok {
		return sel
	}
	return v.doc.EmptySelection()
}

// Elements returns a snapshot of the current handle cache.
func (v *View) Elements() map[string]*dom.Selection {
	out := make(map[string]*dom.Selection, len(v.elements))
	for name, sel := range v.elements {
		out[name] = sel
	}
	return out
}

// ============================================================================
// Rendering
// ============================================================================

// Render runs the pipeline: BeforeRender, markup production, element cache
// rebuild, AfterRender. The root's previous subtree is discarded wholesale;
// the root element itself survives, keeping its identity, attributes and
// bindings. Errors from hooks and producers propagate unmodified and leave
// the pipeline where it stopped.
func (v *View) Render() error {
	if v.state == StateDisposed {
		return v.lifecycleError("render")
	}

	if v.def.BeforeRender != nil {
		if err := v.def.BeforeRender(v); err != nil {
			return err
		}
	}

	if v.def.Render != nil {
		if err := v.def.Render(v); err != nil {
			return err
		}
	} else {
		if v.def.Template != nil {
			markup, err := tmpl.Resolve(v.def.Template, v.def.Data)
			if err != nil {
				return err
			}
			if err := v.root.SetHTML(markup); err != nil {
				return err
			}
		}
		v.refreshElements()
	}

	v.state = StateRendered

	if v.def.AfterRender != nil {
		if err := v.def.AfterRender(v); err != nil {
			return err
		}
	}
	return nil
}

// UpdateElements re-resolves every declared handle selector against the
// current root subtree. Selectors that match nothing leave an empty
// selection under their name.
func (v *View) UpdateElements() error {
	if v.state == StateDisposed {
		return v.lifecycleError("updateElements")
	}
	v.refreshElements()
	return nil
}

func (v *View) refreshElements() {
	v.elements = make(map[string]*dom.Selection, len(v.def.Elements))
	for name, selector := range v.def.Elements {
		v.elements[name] = v.root.Find(selector)
	}
}

// ============================================================================
// Attachment
// ============================================================================

// AppendTo inserts the root as the target's last child, re-establishes
// event delegation and then renders. Producers invoked by that render see
// the root already connected to the document.
//
// The target is a selector string resolved against the document or a
// *dom.Selection; its first match is used. A target that matches nothing is
// no error: the view renders detached.
func (v *View) AppendTo(target any) error {
	return v.attach("appendTo", target, func(dst *dom.Selection) {
		dst.Append(v.root)
	})
}

// PrependTo is AppendTo inserting the root as the target's first child.
func (v *View) PrependTo(target any) error {
	return v.attach("prependTo", target, func(dst *dom.Selection) {
		dst.Prepend(v.root)
	})
}

// Replace removes the target element and puts the root in its place, then
// delegates and renders like the other attach operations.
func (v *View) Replace(target any) error {
	return v.attach("replace", target, func(dst *dom.Selection) {
		dst.ReplaceWith(v.root)
	})
}

func (v *View) attach(op string, target any, insert func(*dom.Selection)) error {
	if v.state == StateDisposed {
		return v.lifecycleError(op)
	}

	dst, err := v.resolveTarget(target)
	if err != nil {
		return err
	}
	if dst.Length() > 0 {
		insert(dst.First())
	}

	v.DelegateEvents()
	return v.Render()
}

func (v *View) resolveTarget(target any) (*dom.Selection, error) {
	switch t := target.(type) {
	case string:
		return v.doc.Find(t), nil
	case *dom.Selection:
		if t == nil {
			return v.doc.EmptySelection(), nil
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrBadTarget, target)
	}
}

// ============================================================================
// Events
// ============================================================================

// DelegateEvents binds every Definition.Events entry on the root under the
// view's own namespace, dropping the previous generation first. Calling it
// repeatedly never stacks handlers.
func (v *View) DelegateEvents() {
	v.UndelegateEvents()
	for key, handler := range v.def.Events {
		if handler == nil {
			continue
		}
		typ, selector := splitEventKey(key)
		if typ == "" {
			continue
		}
		h := handler
		v.root.On(typ+"."+v.id, selector, func(e *dom.Event) {
			h(v, e)
		})
	}
}

// UndelegateEvents removes the view's bindings from the root, leaving any
// bindings other owners added untouched.
func (v *View) UndelegateEvents() {
	v.root.Off("." + v.id)
}

// ============================================================================
// Disposal
// ============================================================================

// Dispose removes the root from the document, severing every binding in the
// subtree, clears the element cache and marks the view disposed. Disposal
// is terminal and not idempotent: disposing twice is a lifecycle violation,
// like any other operation on a disposed view.
//
// Child views attached inside this view's subtree are not disposed; their
// owners dispose them. Their roots leave the document along with the
// subtree and may be re-attached elsewhere after re-delegation.
func (v *View) Dispose() error {
	if v.state == StateDisposed {
		return v.lifecycleError("dispose")
	}
	v.root.Remove()
	v.elements = make(map[string]*dom.Selection)
	v.state = StateDisposed
	return nil
}
