package xml

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wordDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body><w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t xml:space="preserve">Hello {{name}} &amp; co</w:t></w:r></w:p><!-- note --><w:sectPr/></w:body></w:document>`

func TestParseRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(wordDocument))
	require.NoError(t, err)

	out, err := Bytes(doc)
	require.NoError(t, err)
	if diff := cmp.Diff(wordDocument, string(out)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKeepsPrefixes(t *testing.T) {
	doc, err := Parse([]byte(wordDocument))
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.True(t, Is(root, "w", "document"))
	assert.False(t, Is(root, "", "document"))

	texts := FindAll(doc.Root(), "w", "t")
	require.Len(t, texts, 1)
	assert.Equal(t, "Hello {{name}} & co", Text(texts[0]))

	space, ok := Attr(texts[0], "xml:space")
	assert.True(t, ok)
	assert.Equal(t, "preserve", space)

	jc := Find(root, "w", "jc")
	require.NotNil(t, jc)
	val, _ := Attr(jc, "w:val")
	assert.Equal(t, "center", val)

	assert.Equal(t, Find(root, "w", "p"), Ancestor(texts[0], "w", "p"))
	assert.Nil(t, Ancestor(texts[0], "w", "tbl"))
	assert.Equal(t, &doc.Element, Parent(root))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no root", "<?xml version=\"1.0\"?>", "no root element"},
		{"garbage", "<a", "failed to parse XML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTreeEditing(t *testing.T) {
	doc, err := Parse([]byte(`<body><p>a</p><p>b</p></body>`))
	require.NoError(t, err)
	body := doc.Root()

	first := FirstChild(body)
	clone := Clone(first)
	SetText(Element(clone), "a2")
	InsertAfter(first, clone)
	assert.Equal(t, "<body><p>a</p><p>a2</p><p>b</p></body>", String(body))

	last := body.Child[len(body.Child)-1]
	Unlink(last)
	assert.Equal(t, "<body><p>a</p><p>a2</p></body>", String(body))
	assert.Equal(t, clone, NextSibling(first))
	assert.Nil(t, NextSibling(clone))
	assert.Nil(t, Parent(last))

	InsertAfter(clone, last)
	assert.Equal(t, last, NextSibling(clone))

	// moving a node that is already linked
	InsertAfter(last, first)
	assert.Equal(t, "<body><p>a2</p><p>b</p><p>a</p></body>", String(body))
	assert.Equal(t, clone, FirstChild(body))
}

func TestCloneIsDeep(t *testing.T) {
	r, err := Fragment(`<r a="1"><t>x</t></r>`)
	require.NoError(t, err)
	assert.Nil(t, Parent(r))

	c := Element(Clone(r))
	c.CreateAttr("a", "2")
	SetText(Find(c, "", "t"), "y")

	assert.Equal(t, `<r a="1"><t>x</t></r>`, String(r))
	assert.Equal(t, `<r a="2"><t>y</t></r>`, String(c))
	assert.Nil(t, Parent(c))

	text := Clone(FirstChild(Find(r, "", "t")))
	assert.Equal(t, "x", Text(text))
	assert.Nil(t, Parent(text))
}

func TestNilTokens(t *testing.T) {
	var e *etree.Element
	assert.Nil(t, Element(e))
	assert.False(t, Is(e, "w", "p"))
	assert.Nil(t, Parent(e))
	assert.Nil(t, FirstChild(nil))
	assert.Nil(t, NextSibling(nil))
	assert.Equal(t, "", Text(e))
}

func TestSetTextKeepsEmptyElementOpen(t *testing.T) {
	e := etree.NewElement("w:t")
	e.CreateAttr("xml:space", "preserve")
	e.CreateAttr("xml:space", "default")
	SetText(e, "")

	require.Len(t, e.Attr, 1)
	assert.Equal(t, `<w:t xml:space="default"></w:t>`, String(e))
	_, ok := Attr(e, "space")
	assert.False(t, ok)
}

func TestEscaping(t *testing.T) {
	e := etree.NewElement("v")
	e.CreateAttr("q", "a\"b<c")
	e.AddChild(etree.NewText("1 < 2 & 3 > 0"))

	got := String(e)
	assert.Equal(t, `<v q="a&quot;b&lt;c">1 &lt; 2 &amp; 3 &gt; 0</v>`, got)

	parsed, err := Fragment(got)
	require.NoError(t, err)
	assert.Equal(t, "1 < 2 & 3 > 0", Text(parsed))
	q, _ := Attr(parsed, "q")
	assert.Equal(t, "a\"b<c", q)
}
