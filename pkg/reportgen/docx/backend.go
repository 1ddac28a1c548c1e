// Package docx implements the reportgen document backend for WordprocessingML
// (.docx) files.
//
// Tags may appear in the main document, headers, footers, footnotes and
// endnotes. A tag must not cross a paragraph. Block tags repeat the paragraphs
// between their own paragraphs, or whole table rows when the tag is the only
// text of its row.
package docx

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
	"github.com/benjaminschreck/go-reportgen/pkg/reportgen/xml"
)

// Backend reads and writes DOCX templates. It keeps per-run state and must not
// be shared between concurrent generations.
type Backend struct {
	reportgen.TextScanner

	files    map[string][]byte
	part     string
	rels     map[string]*relationships
	media    map[string][]byte
	drawings int
}

// NewBackend creates a DOCX backend with the default delimiters
func NewBackend() *Backend {
	b := &Backend{}
	b.TextScanner = reportgen.TextScanner{
		Delimiters: reportgen.DefaultDelimiters,
		Boundary: func(n reportgen.Node) bool {
			return xml.Is(unwrap(n), "w", "p")
		},
		Accept: func(n reportgen.Node) bool {
			return xml.Is(xml.Parent(unwrap(n)), "w", "t")
		},
	}
	return b
}

// Unpack reads the zip container and marks the parts that can hold tags
func (b *Backend) Unpack(data []byte) ([]reportgen.Part, error) {
	parts, err := readPackage(data)
	if err != nil {
		return nil, err
	}

	b.files = make(map[string][]byte, len(parts))
	for _, p := range parts {
		b.files[p.Name] = p.Data
	}
	b.rels = map[string]*relationships{}
	b.media = map[string][]byte{}
	b.part = ""
	b.drawings = 0
	return parts, nil
}

// Pack writes the parts back into a zip container together with the images
// added during generation.
func (b *Backend) Pack(parts []reportgen.Part, w io.Writer) error {
	extra := make(map[string][]byte, len(b.media)+len(b.rels)+1)
	types := map[string]string{}

	for name, data := range b.media {
		extra[name] = data
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		types[ext] = mimeTypes[ext]
	}
	for path, rels := range b.rels {
		data, err := xml.Bytes(rels.doc)
		if err != nil {
			return reportgen.NewPartError("pack", path, err)
		}
		extra[path] = data
	}

	if len(types) > 0 {
		if ct, ok := b.files[contentTypesPart]; ok {
			data, err := addContentTypeDefaults(ct, types)
			if err != nil {
				return reportgen.NewPartError("pack", contentTypesPart, err)
			}
			extra[contentTypesPart] = data
		}
	}

	return writePackage(w, parts, extra)
}

var mimeTypes = map[string]string{
	"png": "image/png",
	"jpg": "image/jpeg",
	"gif": "image/gif",
}

// Open parses one XML part
func (b *Backend) Open(part reportgen.Part) (reportgen.Document, error) {
	doc, err := xml.Parse(part.Data)
	if err != nil {
		return nil, reportgen.NewPartError("open", part.Name, err)
	}
	b.part = part.Name
	return &document{doc: doc}, nil
}

// Save renders a part opened with Open
func (b *Backend) Save(doc reportgen.Document) ([]byte, error) {
	d, ok := doc.(*document)
	if !ok {
		return nil, reportgen.NewPartError("save", b.part, fmt.Errorf("unexpected document type %T", doc))
	}
	b.numberDrawings(&d.doc.Element)
	data, err := xml.Bytes(d.doc)
	if err != nil {
		return nil, reportgen.NewPartError("save", b.part, err)
	}
	return data, nil
}

// MainNode returns the paragraph of a block tag, or its table row when the
// paragraph holds all text of the row.
func (b *Backend) MainNode(n reportgen.Node, kind reportgen.TagKind, key string) (reportgen.Node, error) {
	p := xml.Ancestor(unwrap(n), "w", "p")
	if p == nil {
		return nil, reportgen.NewTemplateError(kind.String()+" tag outside of a paragraph", key)
	}
	if tr := xml.Ancestor(p, "w", "tr"); tr != nil {
		if strings.TrimSpace(xml.Text(tr)) == strings.TrimSpace(xml.Text(p)) {
			return wrap(tr), nil
		}
	}
	return wrap(p), nil
}

// WriteText replaces the content of a text node and keeps its spaces
func (b *Backend) WriteText(n reportgen.Node, text string) error {
	x, ok := unwrap(n).(*etree.CharData)
	if !ok {
		return reportgen.NewPartError("write", b.part, fmt.Errorf("unexpected text node %T", unwrap(n)))
	}
	x.Data = text
	if t := xml.Parent(x); xml.Is(t, "w", "t") {
		t.CreateAttr("xml:space", "preserve")
	}
	return nil
}

// TargetName makes sure the output file carries the .docx extension
func (b *Backend) TargetName(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		return path
	}
	return path + ".docx"
}

type document struct {
	doc *etree.Document
}

func (d *document) Root() reportgen.Node {
	return wrap(&d.doc.Element)
}

// node adapts an etree token to reportgen.Node
type node struct {
	t etree.Token
}

func wrap(t etree.Token) reportgen.Node {
	if e, ok := t.(*etree.Element); t == nil || ok && e == nil {
		return nil
	}
	return node{t: t}
}

func unwrap(n reportgen.Node) etree.Token {
	return n.(node).t
}

func (n node) IsText() bool {
	_, ok := n.t.(*etree.CharData)
	return ok
}

func (n node) Content() string {
	if c, ok := n.t.(*etree.CharData); ok {
		return c.Data
	}
	return ""
}

func (n node) SetContent(text string) {
	if c, ok := n.t.(*etree.CharData); ok {
		c.Data = text
	}
}

func (n node) Parent() reportgen.Node      { return wrap(xml.Parent(n.t)) }
func (n node) FirstChild() reportgen.Node  { return wrap(xml.FirstChild(n.t)) }
func (n node) NextSibling() reportgen.Node { return wrap(xml.NextSibling(n.t)) }
func (n node) Clone() reportgen.Node       { return wrap(xml.Clone(n.t)) }
func (n node) Unlink()                     { xml.Unlink(n.t) }
func (n node) InsertAfter(other reportgen.Node) {
	xml.InsertAfter(n.t, unwrap(other))
}
