package reportgen

import (
	"strings"

	"golang.org/x/text/cases"
)

// SplitResult classifies what SplitText found in a piece of text
type SplitResult int

const (
	NoTag SplitResult = iota
	TagBegin
	TagEnd
	FullTag
)

func (r SplitResult) String() string {
	switch r {
	case TagBegin:
		return "tag begin"
	case TagEnd:
		return "tag end"
	case FullTag:
		return "full tag"
	default:
		return "no tag"
	}
}

// Split is the outcome of scanning one text for a delimiter pair
type Split struct {
	Result SplitResult
	Kind   TagKind
	// Text is the raw text between the markers. For TagBegin it runs to the end of
	// the input, for TagEnd it starts at the beginning.
	Text       string
	TextBefore string
	TextAfter  string
}

// Key returns the case-folded tag key
func (s Split) Key() string {
	return FoldKey(s.Text)
}

// FoldKey normalizes a tag or key-map key for comparison
func FoldKey(text string) string {
	return cases.Fold().String(strings.TrimSpace(text))
}

// SplitText looks for the first delimiter pair of the table that occurs in text
// and classifies the occurrence.
func SplitText(text string, delimiters Delimiters) (Split, error) {
	if strings.TrimSpace(text) == "" {
		return Split{}, nil
	}

	for _, d := range delimiters {
		begin := strings.Index(text, d.Begin)
		end := strings.Index(text, d.End)
		if begin < 0 && end < 0 {
			continue
		}

		if begin >= 0 && end >= 0 && end < begin+len(d.Begin) {
			return Split{}, NewTemplateError("intersection of the begin and end marks", text)
		}

		split := Split{Kind: d.Kind}
		switch {
		case begin >= 0 && end >= 0:
			split.Result = FullTag
			split.TextBefore = text[:begin]
			split.Text = text[begin+len(d.Begin) : end]
			split.TextAfter = text[end+len(d.End):]
		case begin >= 0:
			split.Result = TagBegin
			split.TextBefore = text[:begin]
			split.Text = text[begin+len(d.Begin):]
		default:
			split.Result = TagEnd
			split.Text = text[:end]
			split.TextAfter = text[end+len(d.End):]
		}
		return split, nil
	}

	return Split{}, nil
}

// Next is the outcome of continuing a tag into a following node
type Next struct {
	// Text is the tag text accumulated so far, or the complete tag text once closed
	Text      string
	TextAfter string
	// Continue is set while the end marker has not been seen
	Continue bool
	// Boundary is set when the node ends the region a tag may span
	Boundary bool
}

// TextScanner implements tag extraction for backends. Boundary reports nodes a
// tag must not span; Accept, when set, limits which text nodes carry template text.
type TextScanner struct {
	Delimiters Delimiters
	Boundary   func(Node) bool
	Accept     func(Node) bool
}

func (s TextScanner) delimiters() Delimiters {
	if len(s.Delimiters) == 0 {
		return DefaultDelimiters
	}
	return s.Delimiters
}

func (s TextScanner) accepts(node Node) bool {
	if !node.IsText() {
		return false
	}
	return s.Accept == nil || s.Accept(node)
}

// ExtractText scans the content of a single node for the start of a tag
func (s TextScanner) ExtractText(node Node) (Split, error) {
	if !s.accepts(node) {
		return Split{}, nil
	}

	split, err := SplitText(node.Content(), s.delimiters())
	if err != nil {
		return Split{}, err
	}
	if split.Result == TagEnd {
		return Split{}, NewTemplateError("found tag end mark without start mark", node.Content())
	}
	return split, nil
}

// ExtractTextNext continues a tag of the given kind, begun in start, into node.
// accumulated is the tag text gathered so far.
func (s TextScanner) ExtractTextNext(start Node, kind TagKind, accumulated string, node Node) (Next, error) {
	if s.Boundary != nil && s.Boundary(node) {
		return Next{Text: accumulated, Boundary: true}, nil
	}
	if !s.accepts(node) {
		return Next{Text: accumulated, Continue: true}, nil
	}

	delimiters := s.delimiters()
	delim, ok := delimiters.ForKind(kind)
	if !ok {
		return Next{}, NewTemplateError("no delimiter for tag kind "+kind.String(), accumulated)
	}

	merged := accumulated + node.Content()
	end := strings.Index(merged, delim.End)

	limit := len(merged)
	if end >= 0 {
		limit = end
	}
	for _, d := range delimiters {
		if strings.Contains(merged[:limit], d.Begin) {
			return Next{}, NewTemplateError("found tag start mark after another start mark", node.Content())
		}
	}

	if end < 0 {
		return Next{Text: merged, Continue: true}, nil
	}
	return Next{
		Text:      merged[:end],
		TextAfter: merged[end+len(delim.End):],
	}, nil
}

// Span locates one complete tag inside a text
type Span struct {
	Start int
	End   int
	Kind  TagKind
}

// FindTagSpans returns the complete tags of text in order. Scanning stops at a
// begin marker that is never closed.
func FindTagSpans(text string, delimiters Delimiters) []Span {
	var spans []Span
	pos := 0
	for pos < len(text) {
		first := -1
		var delim Delimiter
		for _, d := range delimiters {
			i := strings.Index(text[pos:], d.Begin)
			if i >= 0 && (first < 0 || i < first) {
				first = i
				delim = d
			}
		}
		if first < 0 {
			break
		}

		start := pos + first
		end := strings.Index(text[start+len(delim.Begin):], delim.End)
		if end < 0 {
			break
		}
		end = start + len(delim.Begin) + end + len(delim.End)
		spans = append(spans, Span{Start: start, End: end, Kind: delim.Kind})
		pos = end
	}
	return spans
}

// SplitTags cuts text into pieces that hold at most one complete tag each.
// An end marker with no begin marker before it (the tail of a tag from an
// earlier node) is cut off into its own piece, as is a trailing begin marker
// that is not closed in text. Concatenating the pieces gives back the
// original text.
func SplitTags(text string, delimiters Delimiters) []string {
	lead := orphanEnd(text, delimiters)
	rest := text[lead:]
	spans := FindTagSpans(rest, delimiters)

	var cuts []int
	if lead > 0 {
		cuts = append(cuts, lead)
	}
	for i, span := range spans {
		if i < len(spans)-1 {
			cuts = append(cuts, lead+span.End)
		}
	}

	tail := 0
	if len(spans) > 0 {
		tail = spans[len(spans)-1].End
	}
	if open := firstBegin(rest[tail:], delimiters); open >= 0 {
		cuts = append(cuts, lead+tail+open)
	}

	pieces := make([]string, 0, len(cuts)+1)
	prev := 0
	for _, cut := range cuts {
		if cut <= prev || cut >= len(text) {
			continue
		}
		pieces = append(pieces, text[prev:cut])
		prev = cut
	}
	return append(pieces, text[prev:])
}

// orphanEnd returns the offset just past the first end marker of text when no
// begin marker precedes it, and 0 otherwise.
func orphanEnd(text string, delimiters Delimiters) int {
	begin := firstBegin(text, delimiters)
	end, endLen := -1, 0
	for _, d := range delimiters {
		if i := strings.Index(text, d.End); i >= 0 && (end < 0 || i < end) {
			end, endLen = i, len(d.End)
		}
	}
	if end < 0 || (begin >= 0 && begin <= end) {
		return 0
	}
	return end + endLen
}

func firstBegin(text string, delimiters Delimiters) int {
	first := -1
	for _, d := range delimiters {
		if i := strings.Index(text, d.Begin); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	return first
}
