package xml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Parse reads an XML part. Text and attribute values are written back with
// minimal escaping, the way Word writes them.
func Parse(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("failed to parse XML: no root element")
	}
	return doc, nil
}

// Fragment parses a snippet and returns its root element detached from any document
func Fragment(snippet string) (*etree.Element, error) {
	doc, err := Parse([]byte(snippet))
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	doc.RemoveChild(root)
	return root, nil
}

// Bytes renders a parsed document
func Bytes(doc *etree.Document) ([]byte, error) {
	return doc.WriteToBytes()
}

// String renders one token and its subtree
func String(t etree.Token) string {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	doc.AddChild(Clone(t))
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// Element returns t as an element, or nil when it is another kind of token
func Element(t etree.Token) *etree.Element {
	e, ok := t.(*etree.Element)
	if !ok || e == nil {
		return nil
	}
	return e
}

// Is reports whether t is an element with the given prefix and local name
func Is(t etree.Token, space, tag string) bool {
	e := Element(t)
	return e != nil && e.Space == space && e.Tag == tag
}

// Parent returns the element holding t, or nil for detached tokens
func Parent(t etree.Token) *etree.Element {
	if t == nil || isNilElement(t) {
		return nil
	}
	return t.Parent()
}

func isNilElement(t etree.Token) bool {
	e, ok := t.(*etree.Element)
	return ok && e == nil
}

// Ancestor returns the closest ancestor element with the given name
func Ancestor(t etree.Token, space, tag string) *etree.Element {
	for p := Parent(t); p != nil; p = p.Parent() {
		if Is(p, space, tag) {
			return p
		}
	}
	return nil
}

// FirstChild returns the first token below t
func FirstChild(t etree.Token) etree.Token {
	e := Element(t)
	if e == nil || len(e.Child) == 0 {
		return nil
	}
	return e.Child[0]
}

// NextSibling returns the token after t in its parent
func NextSibling(t etree.Token) etree.Token {
	p := Parent(t)
	if p == nil {
		return nil
	}
	if i := t.Index() + 1; i < len(p.Child) {
		return p.Child[i]
	}
	return nil
}

// Unlink removes t from its parent. Its children stay attached to t.
func Unlink(t etree.Token) {
	if p := Parent(t); p != nil {
		p.RemoveChildAt(t.Index())
	}
}

// InsertAfter links other as the next sibling of t
func InsertAfter(t, other etree.Token) {
	Unlink(other)
	if p := Parent(t); p != nil {
		p.InsertChildAt(t.Index()+1, other)
	}
}

// Clone returns a detached deep copy of t
func Clone(t etree.Token) etree.Token {
	switch v := t.(type) {
	case *etree.Element:
		return v.Copy()
	case *etree.CharData:
		if v.IsCData() {
			return etree.NewCData(v.Data)
		}
		return etree.NewText(v.Data)
	case *etree.Comment:
		return etree.NewComment(v.Data)
	case *etree.ProcInst:
		return etree.NewProcInst(v.Target, v.Inst)
	case *etree.Directive:
		return etree.NewDirective(v.Data)
	}
	return nil
}

// FindAll returns the descendant elements of t with the given name in document order
func FindAll(t etree.Token, space, tag string) []*etree.Element {
	var found []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Space == space && c.Tag == tag {
				found = append(found, c)
			}
			walk(c)
		}
	}
	if e := Element(t); e != nil {
		walk(e)
	}
	return found
}

// Find returns the first descendant element of t with the given name
func Find(t etree.Token, space, tag string) *etree.Element {
	if all := FindAll(t, space, tag); len(all) > 0 {
		return all[0]
	}
	return nil
}

// Text concatenates the character data below t
func Text(t etree.Token) string {
	switch v := t.(type) {
	case *etree.CharData:
		return v.Data
	case *etree.Element:
		if v == nil {
			return ""
		}
		var b strings.Builder
		for _, c := range v.Child {
			b.WriteString(Text(c))
		}
		return b.String()
	}
	return ""
}

// SetText replaces the children of e with a single text token
func SetText(e *etree.Element, text string) {
	for len(e.Child) > 0 {
		e.RemoveChildAt(len(e.Child) - 1)
	}
	e.AddChild(etree.NewText(text))
}

// Attr returns the value of the attribute with the qualified name, e.g. "r:embed"
func Attr(e *etree.Element, name string) (string, bool) {
	a := e.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}
