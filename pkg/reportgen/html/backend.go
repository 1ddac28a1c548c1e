// Package html implements the reportgen document backend for HTML files.
//
// The whole file is one template. Tags must not cross block-level elements, and
// block tags repeat the table rows between the row of the start tag and the row
// of the finish tag.
package html

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
)

// blockElements end the region a tag may span
var blockElements = map[atom.Atom]bool{
	atom.Html: true, atom.Body: true, atom.Div: true, atom.P: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tfoot: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Caption: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Nav: true, atom.Aside: true, atom.Main: true, atom.Blockquote: true,
	atom.Pre: true, atom.Hr: true, atom.Br: true, atom.Form: true,
}

// Backend reads and writes HTML templates
type Backend struct {
	reportgen.TextScanner
	policy *bluemonday.Policy
}

// Option configures a Backend
type Option func(*Backend)

// WithSanitizer strips markup from written values with the given policy
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(b *Backend) {
		b.policy = policy
	}
}

// WithStrictSanitizer strips all markup from written values
func WithStrictSanitizer() Option {
	return WithSanitizer(bluemonday.StrictPolicy())
}

// NewBackend creates an HTML backend with the default delimiters
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		TextScanner: reportgen.TextScanner{
			Delimiters: reportgen.DefaultDelimiters,
			Boundary: func(n reportgen.Node) bool {
				x := unwrap(n)
				return x.Type == html.ElementNode && blockElements[x.DataAtom]
			},
			Accept: func(n reportgen.Node) bool {
				p := unwrap(n).Parent
				return p == nil || (p.DataAtom != atom.Script && p.DataAtom != atom.Style)
			},
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Unpack returns no parts: an HTML file is a single template
func (b *Backend) Unpack(data []byte) ([]reportgen.Part, error) {
	return nil, nil
}

// Pack is never called for single-part formats
func (b *Backend) Pack(parts []reportgen.Part, w io.Writer) error {
	return reportgen.NewDocumentError("pack", "", errors.New("html documents have no parts"))
}

// Open parses an HTML document
func (b *Backend) Open(part reportgen.Part) (reportgen.Document, error) {
	root, err := html.Parse(bytes.NewReader(part.Data))
	if err != nil {
		return nil, reportgen.NewPartError("open", part.Name, err)
	}
	return &document{root: root}, nil
}

// Save renders a document opened with Open
func (b *Backend) Save(doc reportgen.Document) ([]byte, error) {
	d, ok := doc.(*document)
	if !ok {
		return nil, reportgen.NewDocumentError("save", "", fmt.Errorf("unexpected document type %T", doc))
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return nil, reportgen.NewDocumentError("save", "", err)
	}
	return buf.Bytes(), nil
}

// Prepare splits text nodes that hold several tags
func (b *Backend) Prepare(root reportgen.Node) error {
	var texts []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			texts = append(texts, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(unwrap(root))

	for _, t := range texts {
		pieces := reportgen.SplitTags(t.Data, b.Delimiters)
		if len(pieces) < 2 {
			continue
		}
		t.Data = pieces[0]
		anchor := t
		for _, piece := range pieces[1:] {
			n := &html.Node{Type: html.TextNode, Data: piece}
			insertAfter(anchor, n)
			anchor = n
		}
	}
	return nil
}

// MainNode returns the table row holding a block tag
func (b *Backend) MainNode(n reportgen.Node, kind reportgen.TagKind, key string) (reportgen.Node, error) {
	for p := unwrap(n).Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Tr {
			return wrap(p), nil
		}
	}
	return nil, reportgen.NewTemplateError(kind.String()+" tag must be placed in a table row", key)
}

// WriteText replaces the content of a text node. Markup in the text is escaped
// on output, or removed when a sanitizer is set.
func (b *Backend) WriteText(n reportgen.Node, text string) error {
	unwrap(n).Data = b.sanitize(text)
	return nil
}

func (b *Backend) sanitize(text string) string {
	if b.policy == nil {
		return text
	}
	return html.UnescapeString(b.policy.Sanitize(text))
}

// WriteImage places an img element with the picture inlined as a data URI
func (b *Backend) WriteImage(n reportgen.Node, before, after string, img *reportgen.Image, id string) error {
	x := unwrap(n)
	x.Data = b.sanitize(before)

	el := &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr: []html.Attribute{
			{Key: "src", Val: "data:" + img.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(img.Data)},
			{Key: "width", Val: strconv.Itoa(img.Width)},
			{Key: "height", Val: strconv.Itoa(img.Height)},
			{Key: "data-id", Val: id},
		},
	}
	insertAfter(x, el)
	if after != "" {
		insertAfter(el, &html.Node{Type: html.TextNode, Data: b.sanitize(after)})
	}
	return nil
}

// TargetName makes sure the output file carries an HTML extension
func (b *Backend) TargetName(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return path
	}
	return path + ".html"
}
