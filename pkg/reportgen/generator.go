package reportgen

import (
	"fmt"
	"strconv"
)

// filler writes data into a parsed block forest
type filler struct {
	backend Backend
	source  DataSource
	format  *formatter
	logger  *Logger
}

// Fill generates every block of the forest in document order
func (f *filler) Fill(blocks []*Block) error {
	for _, b := range blocks {
		if err := f.block(b); err != nil {
			return err
		}
	}
	return nil
}

// block fills the children first so nested blocks are complete before a row
// template is cloned
func (f *filler) block(b *Block) error {
	for _, child := range b.Children {
		if err := f.block(child); err != nil {
			return err
		}
	}

	if b.Kind == ComplexBlock {
		return f.repeat(b)
	}

	switch b.Start.Kind {
	case TagField, TagCell:
		return f.simple(b.Start)
	case TagColumn:
		// written per row by the enclosing block
		return nil
	default:
		return NewTemplateError(fmt.Sprintf("unexpected %s tag in simple block", b.Start.Kind), b.Start.Key)
	}
}

func (f *filler) simple(tag *Tag) error {
	var (
		property Property
		value    any
		imageID  string
	)

	switch tag.Kind {
	case TagField:
		if tag.Property.Valid() {
			v, err := f.source.Value(tag.Property.ID)
			if err != nil {
				return WithContext(err, "read field", map[string]interface{}{"tag": tag.Key})
			}
			property = tag.Property
			value = v
			imageID = strconv.Itoa(int(tag.Property.ID))
		}

	case TagCell:
		if tag.Property.Valid() && tag.Column.Valid() {
			rows, err := f.source.RowCount(tag.Property.ID)
			if err != nil {
				return WithContext(err, "count rows", map[string]interface{}{"tag": tag.Key})
			}
			if tag.Row < rows {
				v, err := f.source.Cell(tag.Column.ID, tag.Row)
				if err != nil {
					return WithContext(err, "read cell", map[string]interface{}{"tag": tag.Key})
				}
				property = tag.Column
				value = v
				imageID = cellImageID(tag.Column, tag.Row)
			} else {
				f.logger.WithFields(Fields{"tag": tag.Key, "rows": rows}).Debug("cell row out of range")
			}
		}
	}

	return f.write(tag, tag.Node, property, value, imageID)
}

// write replaces a tag with its value. When the tag spanned several nodes its
// trailing text already lives in the end node.
func (f *filler) write(tag *Tag, node Node, property Property, value any, imageID string) error {
	after := tag.TextAfter
	if tag.EndNode != nil {
		after = ""
	}

	if property.Type == ImageValue {
		img, err := imageValue(value)
		if err != nil {
			return NewPropertyError(tag.Key, err.Error())
		}
		if img != nil {
			return f.backend.WriteImage(node, tag.TextBefore, after, img, imageID)
		}
		return f.backend.WriteText(node, tag.TextBefore+after)
	}

	return f.backend.WriteText(node, tag.TextBefore+f.format.Format(property, value)+after)
}

type columnSlot struct {
	tag      *Tag
	position int
}

// repeat expands the row template of a complex block once per dataset row
func (f *filler) repeat(b *Block) error {
	start, finish := b.Start.MainNode, b.Finish.MainNode
	if start == nil || finish == nil {
		return NewTemplateError("block without structural nodes", b.Key())
	}
	if !isLaterSibling(start, finish) {
		return NewTemplateError("block finish tag is not a later sibling of its start tag", b.Key())
	}

	var rowTemplate []Node
	for n := start.NextSibling(); n != finish; {
		next := n.NextSibling()
		n.Unlink()
		rowTemplate = append(rowTemplate, n)
		n = next
	}

	positions := make(map[Node]int)
	for i, n := range flatten(rowTemplate) {
		positions[n] = i
	}

	var slots []columnSlot
	for _, child := range b.Children {
		if child.Kind != SimpleBlock || child.Start.Kind != TagColumn {
			continue
		}
		pos, ok := positions[child.Start.Node]
		if !ok {
			return NewTemplateError("column tag outside of the block row", child.Key())
		}
		slots = append(slots, columnSlot{tag: child.Start, position: pos})
	}

	rows := 0
	if b.Start.Property.Valid() {
		n, err := f.source.RowCount(b.Start.Property.ID)
		if err != nil {
			return WithContext(err, "count rows", map[string]interface{}{"tag": b.Key()})
		}
		rows = n
	}

	f.logger.WithFields(Fields{
		"block": b.Key(),
		"rows":  rows,
		"nodes": len(positions),
	}).Debug("expanding block")

	for row := rows - 1; row >= 0; row-- {
		if err := f.row(finish, rowTemplate, slots, row); err != nil {
			return err
		}
	}

	start.Unlink()
	finish.Unlink()
	return nil
}

// row inserts one copy of the row template after anchor and fills its columns
func (f *filler) row(anchor Node, rowTemplate []Node, slots []columnSlot, row int) error {
	clones := make([]Node, len(rowTemplate))
	for i, n := range rowTemplate {
		c := n.Clone()
		anchor.InsertAfter(c)
		anchor = c
		clones[i] = c
	}

	index := flatten(clones)
	for _, slot := range slots {
		if slot.position >= len(index) {
			return NewTemplateError("row copy does not match its template", slot.tag.Key)
		}
		node := index[slot.position]

		if !slot.tag.Property.Valid() {
			if err := f.write(slot.tag, node, Property{}, nil, ""); err != nil {
				return err
			}
			continue
		}

		value, err := f.source.Cell(slot.tag.Property.ID, row)
		if err != nil {
			return WithContext(err, "read cell", map[string]interface{}{"tag": slot.tag.Key, "row": row})
		}
		if err := f.write(slot.tag, node, slot.tag.Property, value, cellImageID(slot.tag.Property, row)); err != nil {
			return err
		}
	}
	return nil
}

// flatten numbers a list of subtrees in pre-order
func flatten(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		walkTree(n, func(c Node) {
			out = append(out, c)
		})
	}
	return out
}

func isLaterSibling(start, finish Node) bool {
	for n := start.NextSibling(); n != nil; n = n.NextSibling() {
		if n == finish {
			return true
		}
	}
	return false
}

func cellImageID(column Property, row int) string {
	return fmt.Sprintf("%d_%d", column.ID, row)
}
