package reportgen

import (
	"fmt"
	"strings"
)

// TagKind represents the kind of a template tag
type TagKind int

const (
	TagInvalid TagKind = iota
	TagField
	TagCell
	TagColumn
	TagBlockStart
	TagBlockFinish
)

func (k TagKind) String() string {
	switch k {
	case TagField:
		return "field"
	case TagCell:
		return "cell"
	case TagColumn:
		return "column"
	case TagBlockStart:
		return "block start"
	case TagBlockFinish:
		return "block finish"
	default:
		return "invalid"
	}
}

// IsBlock reports whether the kind opens or closes a repeating block
func (k TagKind) IsBlock() bool {
	return k == TagBlockStart || k == TagBlockFinish
}

// Delimiter is one begin/end marker pair and the tag kind it produces
type Delimiter struct {
	Begin string
	End   string
	Kind  TagKind
}

// Delimiters is an ordered delimiter table. The first pair that matches wins.
type Delimiters []Delimiter

// DefaultDelimiters is the delimiter table shared by the bundled backends
var DefaultDelimiters = Delimiters{
	{Begin: "{{", End: "}}", Kind: TagField},
	{Begin: "{<", End: ">}", Kind: TagCell},
	{Begin: "{[", End: "]}", Kind: TagBlockStart},
	{Begin: "{#", End: "#}", Kind: TagBlockFinish},
}

// ForKind returns the delimiter pair producing the given kind.
// Column tags share the field markers.
func (d Delimiters) ForKind(kind TagKind) (Delimiter, bool) {
	if kind == TagColumn {
		kind = TagField
	}
	for _, delim := range d {
		if delim.Kind == kind {
			return delim, true
		}
	}
	return Delimiter{}, false
}

// Tag is one placeholder occurrence found in a template
type Tag struct {
	Kind TagKind
	// Key is the case-folded, trimmed tag text
	Key string
	// Text is the raw text between the markers
	Text       string
	TextBefore string
	TextAfter  string

	// Node holds the begin marker. EndNode is set when the end marker was found in a later node.
	Node    Node
	EndNode Node
	// MainNode is the structural node removed together with a block tag
	MainNode Node

	Property Property
	// Row and Column address a single value for cell tags
	Row    int
	Column Property
}

func (t *Tag) String() string {
	delim, ok := DefaultDelimiters.ForKind(t.Kind)
	if !ok {
		return t.Key
	}
	return delim.Begin + t.Key + delim.End
}

// Resolved reports whether the tag key matched a property
func (t *Tag) Resolved() bool {
	return t.Property.Valid()
}

// BlockKind distinguishes single-value blocks from repeating ones
type BlockKind int

const (
	SimpleBlock BlockKind = iota
	ComplexBlock
)

// Block is either a simple tag or a start/finish pair with children
type Block struct {
	Kind     BlockKind
	Start    *Tag
	Finish   *Tag
	Children []*Block
}

// Key returns the key of the block's first tag
func (b *Block) Key() string {
	if b.Start == nil {
		return ""
	}
	return b.Start.Key
}

// DescribeBlocks renders a block forest as indented lines, one per block
func DescribeBlocks(blocks []*Block) []string {
	var lines []string
	var walk func(blocks []*Block, depth int)
	walk = func(blocks []*Block, depth int) {
		for _, b := range blocks {
			indent := strings.Repeat("  ", depth)
			if b.Kind == ComplexBlock {
				lines = append(lines, fmt.Sprintf("%s%s..%s (%d children)", indent, b.Start, b.Finish, len(b.Children)))
				walk(b.Children, depth+1)
				continue
			}
			lines = append(lines, fmt.Sprintf("%s%s", indent, b.Start))
		}
	}
	walk(blocks, 0)
	return lines
}
