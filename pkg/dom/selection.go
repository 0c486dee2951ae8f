package dom

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Selection is a handle over zero or more nodes of a Document.
//
// Query methods never fail: an empty selection simply yields zero-value
// results, and every derived selection of a missing match has Length 0.
// Mutation methods are no-ops on empty selections.
type Selection struct {
	doc *Document
	gq  *goquery.Selection
}

// ============================================================================
// Querying
// ============================================================================

// Find returns the descendants of the selected nodes matching selector.
func (s *Selection) Find(selector string) *Selection {
	return &Selection{doc: s.doc, gq: s.gq.Find(selector)}
}

// Filter reduces the selection to the nodes matching selector.
func (s *Selection) Filter(selector string) *Selection {
	return &Selection{doc: s.doc, gq: s.gq.Filter(selector)}
}

// First returns a selection of the first node, or an empty selection.
func (s *Selection) First() *Selection {
	return &Selection{doc: s.doc, gq: s.gq.First()}
}

// Eq returns a selection of the node at index i, or an empty selection.
func (s *Selection) Eq(i int) *Selection {
	return &Selection{doc: s.doc, gq: s.gq.Eq(i)}
}

// Length returns the number of selected nodes.
func (s *Selection) Length() int {
	return s.gq.Length()
}

// Each calls f for every selected node, wrapped as its own selection.
func (s *Selection) Each(f func(int, *Selection)) *Selection {
	s.gq.Each(func(i int, gq *goquery.Selection) {
		f(i, &Selection{doc: s.doc, gq: gq})
	})
	return s
}

// Is reports whether any selected node matches selector.
func (s *Selection) Is(selector string) bool {
	if s.Length() == 0 {
		return false
	}
	return s.gq.Is(selector)
}

// Parent returns the parent of each selected node.
func (s *Selection) Parent() *Selection {
	return &Selection{doc: s.doc, gq: s.gq.Parent()}
}

// Children returns the element children of each selected node.
func (s *Selection) Children() *Selection {
	return &Selection{doc: s.doc, gq: s.gq.Children()}
}

// Closest returns, for each selected node, the nearest ancestor (the node
// itself included) matching selector.
func (s *Selection) Closest(selector string) *Selection {
	return &Selection{doc: s.doc, gq: s.gq.Closest(selector)}
}

// Attr returns the named attribute of the first node.
func (s *Selection) Attr(name string) (string, bool) {
	return s.gq.Attr(strings.ToLower(name))
}

// AttrOr returns the named attribute of the first node, or def when absent.
func (s *Selection) AttrOr(name, def string) string {
	return s.gq.AttrOr(strings.ToLower(name), def)
}

// Text returns the combined text contents of the selected nodes.
func (s *Selection) Text() string {
	return s.gq.Text()
}

// HTML returns the inner HTML of the first node.
func (s *Selection) HTML() string {
	markup, _ := s.gq.Html()
	return markup
}

// OuterHTML serializes every selected node, the nodes themselves included.
func (s *Selection) OuterHTML() string {
	var buf bytes.Buffer
	for _, node := range s.gq.Nodes {
		if err := html.Render(&buf, node); err != nil {
			return ""
		}
	}
	return buf.String()
}

// Nodes returns the underlying nodes. Callers must not restructure them
// directly; use the mutation methods so event bookkeeping stays correct.
func (s *Selection) Nodes() []*html.Node {
	return s.gq.Nodes
}

// Document returns the owning document.
func (s *Selection) Document() *Document {
	return s.doc
}

// Connected reports whether the first selected node is reachable from the
// document root. Detached fragments and empty selections are not connected.
func (s *Selection) Connected() bool {
	if s.Length() == 0 {
		return false
	}
	return s.doc.contains(s.gq.Nodes[0])
}

// Clone deep-copies the selected nodes into a new detached selection.
// Clones never carry event bindings.
func (s *Selection) Clone() *Selection {
	nodes := make([]*html.Node, 0, s.Length())
	for _, node := range s.gq.Nodes {
		nodes = append(nodes, cloneNode(node))
	}
	return s.doc.wrap(nodes...)
}

// ============================================================================
// Mutation
// ============================================================================

// SetAttr sets the named attribute on every selected node.
func (s *Selection) SetAttr(name, value string) *Selection {
	name = strings.ToLower(name)
	for _, node := range s.gq.Nodes {
		set := false
		for i, attr := range node.Attr {
			if attr.Key == name {
				node.Attr[i].Val = value
				set = true
				break
			}
		}
		if !set {
			node.Attr = append(node.Attr, html.Attribute{Key: name, Val: value})
		}
	}
	return s
}

// RemoveAttr removes the named attribute from every selected node.
func (s *Selection) RemoveAttr(name string) *Selection {
	name = strings.ToLower(name)
	for _, node := range s.gq.Nodes {
		for i, attr := range node.Attr {
			if attr.Key == name {
				node.Attr = append(node.Attr[:i], node.Attr[i+1:]...)
				break
			}
		}
	}
	return s
}

// SetText replaces the contents of every selected node with a single text
// node. Bindings of the removed contents are severed.
func (s *Selection) SetText(text string) *Selection {
	for _, node := range s.gq.Nodes {
		s.doc.purgeContents(node)
		removeChildren(node)
		node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return s
}

// SetHTML replaces the contents of every selected node with the parsed
// markup. The whole existing subtree under each node is discarded and its
// bindings severed; the nodes themselves and their own bindings survive.
func (s *Selection) SetHTML(markup string) error {
	frag, err := s.doc.ParseFragment(markup)
	if err != nil {
		return err
	}
	s.Empty()
	s.Append(frag)
	return nil
}

// Empty removes the contents of every selected node, severing the bindings
// of everything removed.
func (s *Selection) Empty() *Selection {
	for _, node := range s.gq.Nodes {
		s.doc.purgeContents(node)
		removeChildren(node)
	}
	return s
}

// Remove detaches the selected nodes from the tree and severs the bindings
// of the nodes and all their descendants.
func (s *Selection) Remove() *Selection {
	for _, node := range s.gq.Nodes {
		s.doc.purgeTree(node)
	}
	s.detach()
	return s
}

// Append inserts content as the last children of each selected node.
//
// The content nodes are moved, not copied, and keep their bindings; when the
// selection has several nodes, every target but the last receives a clone.
// Content should belong to the same document as the selection.
func (s *Selection) Append(content *Selection) *Selection {
	s.insertAt(content, func(target *html.Node, children []*html.Node) {
		for _, c := range children {
			target.AppendChild(c)
		}
	})
	return s
}

// Prepend inserts content as the first children of each selected node.
func (s *Selection) Prepend(content *Selection) *Selection {
	s.insertAt(content, func(target *html.Node, children []*html.Node) {
		anchor := target.FirstChild
		for _, c := range children {
			target.InsertBefore(c, anchor)
		}
	})
	return s
}

// Before inserts content as the immediately preceding siblings of each
// selected node. Detached targets are skipped.
func (s *Selection) Before(content *Selection) *Selection {
	s.insertAt(content, func(target *html.Node, children []*html.Node) {
		if target.Parent == nil {
			return
		}
		for _, c := range children {
			target.Parent.InsertBefore(c, target)
		}
	})
	return s
}

// After inserts content as the immediately following siblings of each
// selected node. Detached targets are skipped.
func (s *Selection) After(content *Selection) *Selection {
	s.insertAt(content, func(target *html.Node, children []*html.Node) {
		if target.Parent == nil {
			return
		}
		anchor := target.NextSibling
		for _, c := range children {
			target.Parent.InsertBefore(c, anchor)
		}
	})
	return s
}

// ReplaceWith swaps each selected node for content. The replaced nodes
// leave the tree and their bindings, subtrees included, are severed.
func (s *Selection) ReplaceWith(content *Selection) *Selection {
	s.Before(content)
	s.Remove()
	return s
}

// detach unlinks the selected nodes from their parents without touching
// bindings. This is the move half of the move-versus-remove distinction.
func (s *Selection) detach() {
	for _, node := range s.gq.Nodes {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

type attachOp func(target *html.Node, children []*html.Node)

func (s *Selection) insertAt(content *Selection, op attachOp) {
	if content == nil || content.Length() == 0 || s.Length() == 0 {
		return
	}
	content.detach()
	last := len(s.gq.Nodes) - 1
	for i, target := range s.gq.Nodes {
		cont := content
		if i != last {
			cont = content.Clone()
		}
		op(target, cont.gq.Nodes)
	}
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}
