// Package xml holds the tree helpers the DOCX backend needs on top of
// github.com/beevik/etree.
//
// Office documents are XML parts inside a zip container. Generating a report rewrites
// these parts in place: tag text is replaced, paragraphs and table rows are cloned and
// removed. etree keeps every token of a part, including namespace prefixes as written,
// so a parsed part renders back to equivalent markup. The helpers here add what
// etree leaves to the caller: sibling navigation over mixed tokens, ancestor lookup,
// deep text and cloning of any token.
//
// Example:
//
//	doc, err := xml.Parse(data)
//	if err != nil {
//	    return err
//	}
//	for _, t := range xml.FindAll(doc.Root(), "w", "t") {
//	    xml.SetText(t, strings.ToUpper(xml.Text(t)))
//	}
//	out, err := xml.Bytes(doc)
package xml
