package html

import (
	"golang.org/x/net/html"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
)

type document struct {
	root *html.Node
}

func (d *document) Root() reportgen.Node {
	return wrap(d.root)
}

// node adapts an html.Node to reportgen.Node
type node struct {
	n *html.Node
}

func wrap(n *html.Node) reportgen.Node {
	if n == nil {
		return nil
	}
	return node{n: n}
}

func unwrap(n reportgen.Node) *html.Node {
	return n.(node).n
}

func (n node) IsText() bool                { return n.n.Type == html.TextNode }
func (n node) Content() string             { return n.n.Data }
func (n node) SetContent(text string)      { n.n.Data = text }
func (n node) Parent() reportgen.Node      { return wrap(n.n.Parent) }
func (n node) FirstChild() reportgen.Node  { return wrap(n.n.FirstChild) }
func (n node) NextSibling() reportgen.Node { return wrap(n.n.NextSibling) }
func (n node) Clone() reportgen.Node       { return wrap(clone(n.n)) }
func (n node) Unlink()                     { unlink(n.n) }
func (n node) InsertAfter(other reportgen.Node) {
	insertAfter(n.n, unwrap(other))
}

// clone returns a detached deep copy of n
func clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if n.Attr != nil {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(clone(child))
	}
	return c
}

func unlink(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
		return
	}
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	}
	n.PrevSibling, n.NextSibling = nil, nil
}

// insertAfter links the detached node c as the next sibling of n
func insertAfter(n, c *html.Node) {
	if n.Parent != nil {
		n.Parent.InsertBefore(c, n.NextSibling)
		return
	}
	c.PrevSibling = n
	c.NextSibling = n.NextSibling
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = c
	}
	n.NextSibling = c
}
