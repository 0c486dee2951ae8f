package dom

import (
	"bytes"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrBadFragment is returned when fragment markup contains document-level
// elements (html, head, body). Those only parse as part of a full document.
var ErrBadFragment = errors.New("dom: fragment contains document-level markup")

// emptyShell is what NewDocument parses. html.Parse fills in the implied
// structure, so the shell stays minimal.
const emptyShell = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document owns one HTML tree and the event registry for its nodes.
//
// Detached fragments created through CreateElement and ParseFragment also
// belong to the document that created them: their bindings live in the same
// registry and activate once the fragment is inserted somewhere reachable
// from the root.
type Document struct {
	root     *html.Node
	doc      *goquery.Document
	bindings map[*html.Node][]binding
}

// NewDocument returns an empty document: doctype, html, head and body.
func NewDocument() *Document {
	d, err := ParseDocument(emptyShell)
	if err != nil {
		// The shell is a constant and always parses.
		panic(err)
	}
	return d
}

// ParseDocument parses source as a complete HTML document. The parser is
// forgiving in the usual HTML5 way: missing html/head/body elements are
// synthesized rather than rejected.
func ParseDocument(source string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	return &Document{
		root:     root,
		doc:      goquery.NewDocumentFromNode(root),
		bindings: make(map[*html.Node][]binding),
	}, nil
}

// Find returns the nodes matching selector anywhere in the document.
func (d *Document) Find(selector string) *Selection {
	return &Selection{doc: d, gq: d.doc.Find(selector)}
}

// EmptySelection returns a selection of no nodes.
func (d *Document) EmptySelection() *Selection {
	return d.wrap()
}

// Root returns the html element.
func (d *Document) Root() *Selection {
	return d.Find("html").First()
}

// Body returns the body element.
func (d *Document) Body() *Selection {
	return d.Find("body").First()
}

// Head returns the head element.
func (d *Document) Head() *Selection {
	return d.Find("head").First()
}

// HTML serializes the whole document, doctype included.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return ""
	}
	return buf.String()
}

// CreateElement returns a new detached element selection.
//
// Example:
//
//	root := doc.CreateElement("div")
//	root.SetAttr("class", "card")
//	doc.Body().Append(root)
func (d *Document) CreateElement(tag string) *Selection {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	return d.wrap(node)
}

// CreateTextNode returns a new detached text node selection.
func (d *Document) CreateTextNode(text string) *Selection {
	return d.wrap(&html.Node{Type: html.TextNode, Data: text})
}

// ParseFragment parses body-level markup into a detached selection of its
// top-level nodes. Markup that needs a document context (html, head, body
// tags) returns ErrBadFragment.
func (d *Document) ParseFragment(source string) (*Selection, error) {
	nodes, err := parseFragment(source)
	if err != nil {
		return nil, err
	}
	return d.wrap(nodes...), nil
}

// MustParseFragment is ParseFragment for markup known to be valid, typically
// string literals in tests and examples.
func (d *Document) MustParseFragment(source string) *Selection {
	sel, err := d.ParseFragment(source)
	if err != nil {
		panic(err)
	}
	return sel
}

// contains reports whether n sits under the document root.
func (d *Document) contains(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

// wrap builds a Selection over the given nodes, tied to this document.
func (d *Document) wrap(nodes ...*html.Node) *Selection {
	return &Selection{doc: d, gq: d.doc.Selection.Slice(0, 0).AddNodes(nodes...)}
}

func parseFragment(source string) ([]*html.Node, error) {
	if err := checkFragment(source); err != nil {
		return nil, err
	}
	nodes, err := html.ParseFragment(strings.NewReader(source), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		node.Parent = nil
		node.PrevSibling = nil
		node.NextSibling = nil
	}
	return nodes, nil
}

// checkFragment rejects markup carrying document-level tags. The fragment
// parser would merge those into the parse context instead of returning
// nodes for them, so the caller would get back less than they wrote.
func checkFragment(source string) error {
	z := html.NewTokenizer(strings.NewReader(source))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "html", "head", "body":
				return ErrBadFragment
			}
		}
	}
}

// cloneNode deep-copies a node subtree. Clones carry no event bindings.
func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}
