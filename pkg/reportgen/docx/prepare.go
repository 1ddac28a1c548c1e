package docx

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
	"github.com/benjaminschreck/go-reportgen/pkg/reportgen/xml"
)

// Prepare normalizes the runs of every paragraph before parsing. Word splits
// text into runs at every formatting or spell-check change, so a tag typed as
// one word is often spread over several w:t elements. Tags are moved into the
// run they start in, and runs holding several tags are split into one run per
// tag.
func (b *Backend) Prepare(root reportgen.Node) error {
	for _, p := range xml.FindAll(unwrap(root), "w", "p") {
		texts := paragraphTexts(p)
		b.mergeTags(texts)
		for _, t := range texts {
			b.splitTags(t)
		}
	}
	return nil
}

// paragraphTexts returns the w:t elements that belong to p itself, skipping
// those of nested paragraphs such as text boxes.
func paragraphTexts(p *etree.Element) []*etree.Element {
	var texts []*etree.Element
	for _, t := range xml.FindAll(p, "w", "t") {
		if xml.Ancestor(t, "w", "p") == p {
			texts = append(texts, t)
		}
	}
	return texts
}

// mergeTags moves the remainder of every tag left open at the end of a text
// into that text, taking it from the texts that follow.
func (b *Backend) mergeTags(texts []*etree.Element) {
	for i := 0; i < len(texts); i++ {
		current := xml.Text(texts[i])
		for j := i + 1; j < len(texts); j++ {
			delim, open := openTag(current, b.Delimiters)
			if !open {
				break
			}
			next := xml.Text(texts[j])
			if next == "" {
				continue
			}
			if end := strings.Index(next, delim.End); end >= 0 {
				current += next[:end+len(delim.End)]
				setText(texts[j], next[end+len(delim.End):])
				continue
			}
			current += next
			setText(texts[j], "")
		}
		if current != xml.Text(texts[i]) {
			setText(texts[i], current)
		}
	}
}

// openTag reports the delimiter of a tag that begins in text without ending there
func openTag(text string, delimiters reportgen.Delimiters) (reportgen.Delimiter, bool) {
	pos := 0
	if spans := reportgen.FindTagSpans(text, delimiters); len(spans) > 0 {
		pos = spans[len(spans)-1].End
	}

	first := -1
	var open reportgen.Delimiter
	for _, d := range delimiters {
		if i := strings.Index(text[pos:], d.Begin); i >= 0 && (first < 0 || i < first) {
			first = i
			open = d
		}
	}
	return open, first >= 0
}

// splitTags gives every complete tag of t a run of its own
func (b *Backend) splitTags(t *etree.Element) {
	run := xml.Parent(t)
	if !xml.Is(run, "w", "r") {
		return
	}
	pieces := reportgen.SplitTags(xml.Text(t), b.Delimiters)
	if len(pieces) < 2 {
		return
	}

	setText(t, pieces[0])
	anchor := run
	for _, piece := range pieces[1:] {
		r := newRunLike(run)
		setText(r.CreateElement("w:t"), piece)
		xml.InsertAfter(anchor, r)
		anchor = r
	}

	// Content after the text belongs after the last piece
	moveSiblings(t, anchor)
}

// moveSiblings appends the tokens following t to the end of dst
func moveSiblings(t etree.Token, dst *etree.Element) {
	for c := xml.NextSibling(t); c != nil; c = xml.NextSibling(t) {
		xml.Unlink(c)
		dst.AddChild(c)
	}
}

func setText(t *etree.Element, text string) {
	xml.SetText(t, text)
	if text != strings.TrimSpace(text) {
		t.CreateAttr("xml:space", "preserve")
	}
}
