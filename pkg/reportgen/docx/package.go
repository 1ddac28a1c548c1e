package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
	"github.com/benjaminschreck/go-reportgen/pkg/reportgen/xml"
)

const (
	documentPart     = "word/document.xml"
	contentTypesPart = "[Content_Types].xml"
	mediaDir         = "word/media/"

	relationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"
	imageRelationshipType  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// templatePart matches the parts that may carry tags
var templatePart = regexp.MustCompile(`^word/(document|header\d*|footer\d*|footnotes|endnotes)\.xml$`)

// readPackage reads every entry of a DOCX zip in archive order
func readPackage(data []byte) ([]reportgen.Part, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, reportgen.NewDocumentError("unpack", "", fmt.Errorf("failed to read zip file: %w", err))
	}

	parts := make([]reportgen.Part, 0, len(zr.File))
	found := false
	for _, file := range zr.File {
		if file.FileInfo().IsDir() {
			continue
		}
		content, err := readFile(file)
		if err != nil {
			return nil, reportgen.NewPartError("unpack", file.Name, err)
		}
		if file.Name == documentPart {
			found = true
		}
		parts = append(parts, reportgen.Part{
			Name:     file.Name,
			Data:     content,
			Template: templatePart.MatchString(file.Name),
		})
	}

	if !found {
		return nil, reportgen.NewDocumentError("unpack", "", errors.New("not a valid DOCX file: missing "+documentPart))
	}
	return parts, nil
}

func readFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", file.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", file.Name, err)
	}
	return content, nil
}

// writePackage writes the parts in order followed by the extra entries sorted by name
func writePackage(w io.Writer, parts []reportgen.Part, extra map[string][]byte) error {
	zw := zip.NewWriter(w)

	write := func(name string, data []byte) error {
		fw, err := zw.Create(name)
		if err != nil {
			return reportgen.NewPartError("pack", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return reportgen.NewPartError("pack", name, err)
		}
		return nil
	}

	for _, part := range parts {
		data := part.Data
		if replaced, ok := extra[part.Name]; ok {
			data = replaced
		}
		if err := write(part.Name, data); err != nil {
			return err
		}
	}

	existing := make(map[string]bool, len(parts))
	for _, part := range parts {
		existing[part.Name] = true
	}
	names := make([]string, 0, len(extra))
	for name := range extra {
		if !existing[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := write(name, extra[name]); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return reportgen.NewDocumentError("pack", "", err)
	}
	return nil
}

// relsPath returns the relationships part of a part,
// e.g. "word/document.xml" -> "word/_rels/document.xml.rels". The package
// itself ("" or "/") has its relationships in "_rels/.rels".
func relsPath(partName string) string {
	partName = strings.TrimPrefix(partName, "/")
	if partName == "" {
		return "_rels/.rels"
	}
	dir := ""
	base := partName
	if idx := strings.LastIndex(partName, "/"); idx != -1 {
		dir = partName[:idx]
		base = partName[idx+1:]
	}
	if dir == "" {
		return fmt.Sprintf("_rels/%s.rels", base)
	}
	return fmt.Sprintf("%s/_rels/%s.rels", dir, base)
}

// relationships is the parsed relationships part of one template part
type relationships struct {
	doc *etree.Document
	// images maps generator image ids to relationship ids
	images map[string]string
}

func parseRelationships(data []byte) (*relationships, error) {
	if data == nil {
		data = []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<Relationships xmlns="` + relationshipsNamespace + `"></Relationships>`)
	}
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, err
	}
	if !xml.Is(doc.Root(), "", "Relationships") {
		return nil, errors.New("relationships part has no Relationships root")
	}
	return &relationships{doc: doc, images: map[string]string{}}, nil
}

// addImage registers target for the image id and returns the relationship id
func (r *relationships) addImage(imageID, target string) string {
	if id, ok := r.images[imageID]; ok {
		return id
	}
	root := r.doc.Root()
	id := nextRelationshipID(root)
	rel := root.CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", imageRelationshipType)
	rel.CreateAttr("Target", target)
	r.images[imageID] = id
	return id
}

// nextRelationshipID returns the id after the highest rIdN in use
func nextRelationshipID(root *etree.Element) string {
	maxID := 0
	for _, c := range root.ChildElements() {
		id := c.SelectAttrValue("Id", "")
		if !strings.HasPrefix(id, "rId") {
			continue
		}
		if n, err := strconv.Atoi(id[3:]); err == nil && n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("rId%d", maxID+1)
}

// addContentTypeDefaults registers a Default entry for every extension that has none
func addContentTypeDefaults(data []byte, types map[string]string) ([]byte, error) {
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, err
	}
	root := doc.Root()

	registered := map[string]bool{}
	for _, c := range root.SelectElements("Default") {
		registered[strings.ToLower(c.SelectAttrValue("Extension", ""))] = true
	}

	exts := make([]string, 0, len(types))
	for ext := range types {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	changed := false
	for _, ext := range exts {
		if registered[ext] {
			continue
		}
		entry := root.CreateElement("Default")
		entry.CreateAttr("Extension", ext)
		entry.CreateAttr("ContentType", types[ext])
		changed = true
	}
	if !changed {
		return data, nil
	}
	return xml.Bytes(doc)
}
