package reportgen

import "io"

// Node is a handle into a template tree. Implementations must be comparable
// and return a literal nil for missing neighbours.
type Node interface {
	IsText() bool
	Content() string
	SetContent(text string)

	Parent() Node
	FirstChild() Node
	NextSibling() Node

	// Clone returns a detached deep copy including attributes
	Clone() Node
	// Unlink detaches the node from its parent and siblings
	Unlink()
	// InsertAfter links a detached node as the next sibling of this one
	InsertAfter(node Node)
}

// Document is a parsed template part
type Document interface {
	Root() Node
}

// Part is one entry of a template container
type Part struct {
	Name string
	Data []byte
	// Template marks parts that carry tags and go through parsing and generation
	Template bool
}

// Backend implements the format-specific operations the generator relies on
type Backend interface {
	// Unpack splits a packed container into parts. No parts means the input is
	// itself a single template.
	Unpack(data []byte) ([]Part, error)
	Pack(parts []Part, w io.Writer) error

	Open(part Part) (Document, error)
	Save(doc Document) ([]byte, error)

	ExtractText(node Node) (Split, error)
	ExtractTextNext(start Node, kind TagKind, accumulated string, node Node) (Next, error)

	// MainNode returns the ancestor of a block tag that is removed with it
	MainNode(node Node, kind TagKind, key string) (Node, error)

	WriteText(node Node, text string) error
	WriteImage(node Node, before, after string, img *Image, id string) error
}

// TreePreparer is implemented by backends that normalize a tree before parsing
type TreePreparer interface {
	Prepare(root Node) error
}

// TargetNamer is implemented by backends that adjust output file names
type TargetNamer interface {
	TargetName(path string) string
}

// IsAncestor reports whether ancestor is a proper ancestor of node
func IsAncestor(ancestor, node Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// FindAncestor returns the closest ancestor of node matching fn, or nil
func FindAncestor(node Node, fn func(Node) bool) Node {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if fn(p) {
			return p
		}
	}
	return nil
}

// TreeText concatenates the content of all text nodes below node in document order
func TreeText(node Node) string {
	var text []byte
	walkTree(node, func(n Node) {
		if n.IsText() {
			text = append(text, n.Content()...)
		}
	})
	return string(text)
}

// walkTree visits node and its descendants in pre-order
func walkTree(node Node, fn func(Node)) {
	fn(node)
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walkTree(c, fn)
	}
}
