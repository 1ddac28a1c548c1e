package reportgen

import (
	"fmt"
	"io"
	"strings"
)

// tnode is a minimal markup tree used to exercise the parser and generator.
// Elements are written <name>...</name>; everything else is text.
type tnode struct {
	name   string
	text   string
	isText bool

	parent, first, last, prev, next *tnode
}

func el(name string, children ...*tnode) *tnode {
	n := &tnode{name: name}
	for _, c := range children {
		n.appendChild(c)
	}
	return n
}

func txt(text string) *tnode {
	return &tnode{text: text, isText: true}
}

func (n *tnode) appendChild(c *tnode) {
	c.parent = n
	c.prev = n.last
	c.next = nil
	if n.last != nil {
		n.last.next = c
	} else {
		n.first = c
	}
	n.last = c
}

func (n *tnode) IsText() bool           { return n.isText }
func (n *tnode) Content() string        { return n.text }
func (n *tnode) SetContent(text string) { n.text = text }

func (n *tnode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *tnode) FirstChild() Node {
	if n.first == nil {
		return nil
	}
	return n.first
}

func (n *tnode) NextSibling() Node {
	if n.next == nil {
		return nil
	}
	return n.next
}

func (n *tnode) Clone() Node {
	c := &tnode{name: n.name, text: n.text, isText: n.isText}
	for child := n.first; child != nil; child = child.next {
		c.appendChild(child.Clone().(*tnode))
	}
	return c
}

func (n *tnode) Unlink() {
	if n.parent != nil {
		if n.parent.first == n {
			n.parent.first = n.next
		}
		if n.parent.last == n {
			n.parent.last = n.prev
		}
	}
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	n.parent, n.prev, n.next = nil, nil, nil
}

func (n *tnode) InsertAfter(node Node) {
	m := node.(*tnode)
	m.parent = n.parent
	m.prev = n
	m.next = n.next
	if n.next != nil {
		n.next.prev = m
	} else if n.parent != nil {
		n.parent.last = m
	}
	n.next = m
}

func isMarkupTag(s string, i int) bool {
	if s[i] != '<' || i+1 >= len(s) {
		return false
	}
	if i > 0 && s[i-1] == '{' {
		return false
	}
	c := s[i+1]
	return c == '/' || (c >= 'a' && c <= 'z')
}

func parseMarkup(s string) *tnode {
	root := el("root")
	cur := root
	i := 0
	for i < len(s) {
		if isMarkupTag(s, i) {
			end := strings.IndexByte(s[i:], '>') + i
			name := s[i+1 : end]
			i = end + 1
			if strings.HasPrefix(name, "/") {
				cur = cur.parent
				continue
			}
			e := el(name)
			cur.appendChild(e)
			cur = e
			continue
		}
		j := i + 1
		for j < len(s) && !isMarkupTag(s, j) {
			j++
		}
		cur.appendChild(txt(s[i:j]))
		i = j
	}
	return root
}

func renderMarkup(n *tnode) string {
	var b strings.Builder
	for c := n.first; c != nil; c = c.next {
		writeMarkup(&b, c)
	}
	return b.String()
}

func writeMarkup(b *strings.Builder, n *tnode) {
	if n.isText {
		b.WriteString(n.text)
		return
	}
	b.WriteString("<" + n.name + ">")
	for c := n.first; c != nil; c = c.next {
		writeMarkup(b, c)
	}
	b.WriteString("</" + n.name + ">")
}

type tdoc struct {
	root *tnode
}

func (d *tdoc) Root() Node { return d.root }

// fakeBackend treats <p> as the tag boundary and the enclosing <p> as the main
// node of block tags. Inputs starting with "MULTI\n" are packed containers whose
// parts are separated by "\n--\n"; parts starting with "static:" are not templates.
type fakeBackend struct {
	TextScanner
	images []*Image
	ids    []string
}

const (
	multiPrefix    = "MULTI\n"
	partSeparator  = "\n--\n"
	staticPrefix   = "static:"
	imagePlacement = "[image %s]"
)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		TextScanner: TextScanner{
			Delimiters: DefaultDelimiters,
			Boundary: func(n Node) bool {
				t := n.(*tnode)
				return !t.isText && t.name == "p"
			},
		},
	}
}

func (b *fakeBackend) Unpack(data []byte) ([]Part, error) {
	s := string(data)
	if !strings.HasPrefix(s, multiPrefix) {
		return nil, nil
	}
	var parts []Part
	for i, p := range strings.Split(strings.TrimPrefix(s, multiPrefix), partSeparator) {
		parts = append(parts, Part{
			Name:     fmt.Sprintf("part%d", i),
			Data:     []byte(p),
			Template: !strings.HasPrefix(p, staticPrefix),
		})
	}
	return parts, nil
}

func (b *fakeBackend) Pack(parts []Part, w io.Writer) error {
	data := make([]string, len(parts))
	for i, p := range parts {
		data[i] = string(p.Data)
	}
	_, err := io.WriteString(w, multiPrefix+strings.Join(data, partSeparator))
	return err
}

func (b *fakeBackend) Open(part Part) (Document, error) {
	return &tdoc{root: parseMarkup(string(part.Data))}, nil
}

func (b *fakeBackend) Save(doc Document) ([]byte, error) {
	return []byte(renderMarkup(doc.(*tdoc).root)), nil
}

func (b *fakeBackend) Prepare(root Node) error {
	var texts []*tnode
	walkTree(root, func(n Node) {
		if n.IsText() {
			texts = append(texts, n.(*tnode))
		}
	})
	for _, t := range texts {
		pieces := SplitTags(t.text, b.Delimiters)
		if len(pieces) < 2 {
			continue
		}
		t.text = pieces[0]
		anchor := t
		for _, p := range pieces[1:] {
			n := txt(p)
			anchor.InsertAfter(n)
			anchor = n
		}
	}
	return nil
}

func (b *fakeBackend) MainNode(node Node, kind TagKind, key string) (Node, error) {
	main := FindAncestor(node, func(n Node) bool {
		return n.(*tnode).name == "p"
	})
	if main == nil {
		return nil, NewTemplateError("block tag outside of a paragraph", key)
	}
	return main, nil
}

func (b *fakeBackend) WriteText(node Node, text string) error {
	node.SetContent(text)
	return nil
}

func (b *fakeBackend) WriteImage(node Node, before, after string, img *Image, id string) error {
	b.images = append(b.images, img)
	b.ids = append(b.ids, id)
	node.SetContent(before + fmt.Sprintf(imagePlacement, id) + after)
	return nil
}

func (b *fakeBackend) TargetName(path string) string {
	if strings.HasSuffix(path, ".txt") {
		return path
	}
	return path + ".txt"
}

// fakeSource is an in-memory data source with a fixed schema:
//
//	1 name   field
//	2 items  dataset with columns 3 item, 4 qty
//	5 logo   image field
//	6 orders dataset with column 7 total
//	8 photo  image column of items
type fakeSource struct {
	props  map[PropertyID]Property
	values map[PropertyID]any
	cells  map[PropertyID][]any
	panics bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		props: map[PropertyID]Property{
			1: {ID: 1, Name: "name", Kind: PropertyField},
			2: {ID: 2, Name: "items", Kind: PropertyDataset},
			3: {ID: 3, Name: "item", Kind: PropertyColumn, Dataset: 2},
			4: {ID: 4, Name: "qty", Kind: PropertyColumn, Dataset: 2},
			5: {ID: 5, Name: "logo", Kind: PropertyField, Type: ImageValue},
			6: {ID: 6, Name: "orders", Kind: PropertyDataset},
			7: {ID: 7, Name: "total", Kind: PropertyColumn, Dataset: 6},
			8: {ID: 8, Name: "photo", Kind: PropertyColumn, Dataset: 2, Type: ImageValue},
		},
		values: map[PropertyID]any{},
		cells:  map[PropertyID][]any{},
	}
}

func (s *fakeSource) keys() KeyMap {
	keys := KeyMap{}
	for id, p := range s.props {
		keys[p.Name] = id
	}
	return keys
}

func (s *fakeSource) setRows(columns map[PropertyID][]any) {
	for id, values := range columns {
		s.cells[id] = values
	}
}

func (s *fakeSource) Property(id PropertyID) (Property, bool) {
	p, ok := s.props[id]
	return p, ok
}

func (s *fakeSource) RowCount(dataset PropertyID) (int, error) {
	if s.panics {
		panic("row count exploded")
	}
	if _, ok := s.props[dataset]; !ok {
		return 0, fmt.Errorf("no dataset %d", dataset)
	}
	rows := 0
	for id, values := range s.cells {
		if s.props[id].Dataset == dataset && len(values) > rows {
			rows = len(values)
		}
	}
	return rows, nil
}

func (s *fakeSource) Value(field PropertyID) (any, error) {
	return s.values[field], nil
}

func (s *fakeSource) Cell(column PropertyID, row int) (any, error) {
	values := s.cells[column]
	if row < 0 || row >= len(values) {
		return nil, nil
	}
	return values[row], nil
}

// parseTemplate prepares and parses markup with the fake backend
func parseTemplate(src string, source *fakeSource, config *Config) (*tnode, []*Block, error) {
	backend := newFakeBackend()
	root := parseMarkup(src)
	if err := backend.Prepare(root); err != nil {
		return nil, nil, err
	}
	resolver, err := NewResolver(source, source.keys(), true)
	if err != nil {
		return nil, nil, err
	}
	if config == nil {
		config = DefaultConfig()
	}
	p := newParser(backend, resolver, config, NewLogger(io.Discard, LogOff))
	blocks, err := p.Parse(root)
	return root, blocks, err
}

// generateMarkup runs the whole pipeline over a single markup template
func generateMarkup(src string, source *fakeSource) (string, error) {
	var out strings.Builder
	gen := New(newFakeBackend(), WithLogger(NewLogger(io.Discard, LogOff)), WithConfig(DefaultConfig()))
	err := gen.Generate(source, source.keys(), false, []byte(src), &out)
	return out.String(), err
}
