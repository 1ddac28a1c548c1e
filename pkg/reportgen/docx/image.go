package docx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
	"github.com/benjaminschreck/go-reportgen/pkg/reportgen/xml"
)

// emuPerPixel converts pixels at 96 dpi to English Metric Units
const emuPerPixel = 9525

const drawingTemplate = `<w:drawing><wp:inline xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" distT="0" distB="0" distL="0" distR="0">` +
	`<wp:extent cx="%[1]d" cy="%[2]d"/><wp:docPr id="0" name="Picture %[3]s"/>` +
	`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
	`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"><pic:nvPicPr><pic:cNvPr id="0" name="%[4]s"/><pic:cNvPicPr/></pic:nvPicPr>` +
	`<pic:blipFill><a:blip xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" r:embed="%[5]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>` +
	`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[2]d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>` +
	`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`

// WriteImage places an inline picture between the text before and after the tag.
// The run holding the tag is split so the picture gets a run of its own.
func (b *Backend) WriteImage(n reportgen.Node, before, after string, img *reportgen.Image, id string) error {
	text, ok := unwrap(n).(*etree.CharData)
	if !ok {
		return reportgen.NewTemplateError("image tag outside of a text run", id)
	}
	t := xml.Parent(text)
	if !xml.Is(t, "w", "t") || !xml.Is(xml.Parent(t), "w", "r") {
		return reportgen.NewTemplateError("image tag outside of a text run", id)
	}
	run := xml.Parent(t)

	target, err := b.addMedia(img, id)
	if err != nil {
		return err
	}

	drawing, err := newDrawing(img, id, target.name, target.relID)
	if err != nil {
		return reportgen.NewPartError("image", target.name, err)
	}

	text.Data = before
	t.CreateAttr("xml:space", "preserve")

	picture := newRunLike(run)
	picture.AddChild(drawing)
	xml.InsertAfter(run, picture)

	rest := newRunLike(run)
	if after != "" {
		at := rest.CreateElement("w:t")
		at.CreateAttr("xml:space", "preserve")
		at.CreateText(after)
	}
	moveSiblings(t, rest)
	if last := len(rest.Child) - 1; last >= 0 && !xml.Is(rest.Child[last], "w", "rPr") {
		xml.InsertAfter(picture, rest)
	}
	return nil
}

// numberDrawings gives every wp:docPr of a part the next document-wide id and
// copies it to the pic:cNvPr of the same picture. Ids must be unique, also for
// pictures repeated with their block.
func (b *Backend) numberDrawings(root etree.Token) {
	for _, docPr := range xml.FindAll(root, "wp", "docPr") {
		b.drawings++
		id := strconv.Itoa(b.drawings)
		docPr.CreateAttr("id", id)
		for _, c := range xml.FindAll(xml.Parent(docPr), "pic", "cNvPr") {
			c.CreateAttr("id", id)
		}
	}
}

type mediaTarget struct {
	name  string
	relID string
}

// addMedia stores the image data and links it from the current part
func (b *Backend) addMedia(img *reportgen.Image, id string) (mediaTarget, error) {
	path := relsPath(b.part)
	rels, ok := b.rels[path]
	if !ok {
		var err error
		rels, err = parseRelationships(b.files[path])
		if err != nil {
			return mediaTarget{}, reportgen.NewPartError("image", path, err)
		}
		b.rels[path] = rels
	}

	name := "image_" + id + img.Extension()
	b.media[mediaDir+name] = img.Data
	relID := rels.addImage(id, relativeTarget(b.part, mediaDir+name))
	return mediaTarget{name: name, relID: relID}, nil
}

// relativeTarget returns target relative to the directory of part
func relativeTarget(part, target string) string {
	dir := ""
	if idx := strings.LastIndex(part, "/"); idx != -1 {
		dir = part[:idx+1]
	}
	return strings.TrimPrefix(target, dir)
}

// newDrawing builds the w:drawing of an inline picture. Its ids are set when
// the part is saved.
func newDrawing(img *reportgen.Image, imageID, name, relID string) (*etree.Element, error) {
	snippet := fmt.Sprintf(drawingTemplate,
		img.Width*emuPerPixel, img.Height*emuPerPixel, imageID, name, relID)
	return xml.Fragment(snippet)
}

// newRunLike creates an empty run with the formatting of run
func newRunLike(run *etree.Element) *etree.Element {
	r := etree.NewElement("w:r")
	if rPr := xml.FirstChild(run); xml.Is(rPr, "w", "rPr") {
		r.AddChild(xml.Clone(rPr))
	}
	return r
}
