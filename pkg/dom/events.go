package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Handler reacts to an event dispatched through the document.
type Handler func(*Event)

// Event is delivered to handlers during dispatch.
//
// Target is the node the event was triggered on. Current is the node the
// firing binding resolved to: the bound node for a direct binding, the
// matched descendant for a delegated one.
type Event struct {
	Type    string
	Target  *Selection
	Current *Selection
	Data    map[string]any

	stopped bool
}

// StopPropagation halts the bubble walk after the current handler returns.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// binding is one registered handler on one node.
type binding struct {
	typ      string
	ns       string
	selector string
	fn       Handler
}

// On registers fn on every selected node for the given event. The event name
// may carry a namespace after a dot ("click.v3"). A non-empty selector makes
// the binding delegated: fn fires when the event bubbles through the node
// from a descendant matching selector.
func (s *Selection) On(event, selector string, fn Handler) *Selection {
	typ, ns := splitEvent(event)
	if typ == "" || fn == nil {
		return s
	}
	for _, node := range s.gq.Nodes {
		s.doc.addBinding(node, binding{typ: typ, ns: ns, selector: selector, fn: fn})
	}
	return s
}

// Off removes bindings from the selected nodes. The event argument narrows
// the removal: "click" removes by type, ".v3" by namespace, "click.v3" by
// both, and "" removes every binding on the nodes.
func (s *Selection) Off(event string) *Selection {
	typ, ns := splitEvent(event)
	for _, node := range s.gq.Nodes {
		s.doc.removeBindings(node, typ, ns)
	}
	return s
}

// Trigger synchronously dispatches the event on every selected node. The
// event bubbles from each node to the top of its tree, firing direct
// bindings at every level and delegated bindings whose selector matches.
//
// Example:
//
//	doc.Find("#save").Trigger("click")
func (s *Selection) Trigger(event string) *Selection {
	return s.TriggerData(event, nil)
}

// TriggerData is Trigger with an event payload handlers can inspect.
func (s *Selection) TriggerData(event string, data map[string]any) *Selection {
	typ, _ := splitEvent(event)
	if typ == "" {
		return s
	}
	for _, node := range s.gq.Nodes {
		s.doc.dispatch(node, typ, data)
	}
	return s
}

// splitEvent separates "type.namespace". Either half may be empty.
func splitEvent(event string) (typ, ns string) {
	typ, ns, _ = strings.Cut(event, ".")
	return typ, ns
}

func (d *Document) addBinding(n *html.Node, b binding) {
	d.bindings[n] = append(d.bindings[n], b)
}

// removeBindings drops the bindings on n matching typ and ns; empty strings
// match everything.
func (d *Document) removeBindings(n *html.Node, typ, ns string) {
	if typ == "" && ns == "" {
		delete(d.bindings, n)
		return
	}
	kept := d.bindings[n][:0]
	for _, b := range d.bindings[n] {
		if (typ == "" || b.typ == typ) && (ns == "" || b.ns == ns) {
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == 0 {
		delete(d.bindings, n)
		return
	}
	d.bindings[n] = kept
}

// purgeTree severs the bindings of n and every node under it.
func (d *Document) purgeTree(n *html.Node) {
	delete(d.bindings, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.purgeTree(c)
	}
}

// purgeContents severs the bindings under n, leaving n's own intact.
func (d *Document) purgeContents(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.purgeTree(c)
	}
}

// dispatch delivers one event along the ancestor path of target. The path
// is captured up front so handlers that restructure the tree cannot derail
// the walk, and each level's bindings are snapshotted so handlers may bind
// and unbind freely.
func (d *Document) dispatch(target *html.Node, typ string, data map[string]any) {
	var path []*html.Node
	for n := target; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		path = append(path, n)
	}

	ev := &Event{Type: typ, Target: d.wrap(target), Data: data}
	for _, cur := range path {
		bs := d.bindings[cur]
		if len(bs) == 0 {
			continue
		}
		snapshot := make([]binding, len(bs))
		copy(snapshot, bs)

		for _, b := range snapshot {
			if b.typ != typ {
				continue
			}
			if b.selector == "" {
				ev.Current = d.wrap(cur)
			} else {
				if cur == target {
					continue
				}
				match := d.closestMatch(target, cur, b.selector)
				if match == nil {
					continue
				}
				ev.Current = d.wrap(match)
			}
			b.fn(ev)
			if ev.stopped {
				return
			}
		}
	}
}

// closestMatch walks from target up to (excluding) below, returning the
// first node matching selector.
func (d *Document) closestMatch(target, below *html.Node, selector string) *html.Node {
	for n := target; n != nil && n != below; n = n.Parent {
		if d.nodeMatches(n, selector) {
			return n
		}
	}
	return nil
}

func (d *Document) nodeMatches(n *html.Node, selector string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	return d.wrap(n).gq.Is(selector)
}
