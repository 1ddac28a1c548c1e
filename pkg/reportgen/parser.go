package reportgen

import (
	"fmt"
	"strconv"
	"strings"
)

// parseState is carried through the whole tree walk. A non-nil pending tag means
// the parser is accumulating tag text across nodes.
type parseState struct {
	pending *Tag
	stack   []*Block
	forest  []*Block
}

func (s *parseState) accumulating() bool {
	return s.pending != nil
}

func (s *parseState) current() *Block {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *parseState) add(block *Block) {
	if parent := s.current(); parent != nil {
		parent.Children = append(parent.Children, block)
		return
	}
	s.forest = append(s.forest, block)
}

func (s *parseState) push(block *Block) {
	s.stack = append(s.stack, block)
}

func (s *parseState) pop() *Block {
	block := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return block
}

// parser builds the block forest of one template part
type parser struct {
	backend  Backend
	resolver *Resolver
	strict   bool
	maxDepth int
	logger   *Logger
	state    parseState
}

func newParser(backend Backend, resolver *Resolver, config *Config, logger *Logger) *parser {
	return &parser{
		backend:  backend,
		resolver: resolver,
		strict:   config.StrictMode,
		maxDepth: config.MaxBlockDepth,
		logger:   logger,
	}
}

// Parse walks the tree below root and returns its block forest
func (p *parser) Parse(root Node) ([]*Block, error) {
	p.state = parseState{}

	if err := p.walk(root); err != nil {
		return nil, err
	}

	if p.state.accumulating() {
		return nil, NewTemplateError("found not closed tag", FoldKey(p.state.pending.Text))
	}

	if len(p.state.stack) > 0 {
		keys := make([]string, len(p.state.stack))
		for i, b := range p.state.stack {
			keys[i] = b.Key()
		}
		return nil, NewTemplateError("found blocks without close tag: "+strings.Join(keys, ", "), keys[len(keys)-1])
	}

	return p.state.forest, nil
}

func (p *parser) walk(parent Node) error {
	for node := parent.FirstChild(); node != nil; node = node.NextSibling() {
		if err := p.visit(node); err != nil {
			return err
		}
		if err := p.walk(node); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) visit(node Node) error {
	if !p.state.accumulating() {
		split, err := p.backend.ExtractText(node)
		if err != nil {
			return err
		}

		switch split.Result {
		case FullTag:
			return p.finish(&Tag{
				Kind:       split.Kind,
				Text:       split.Text,
				TextBefore: split.TextBefore,
				TextAfter:  split.TextAfter,
				Node:       node,
			})
		case TagBegin:
			p.state.pending = &Tag{
				Kind:       split.Kind,
				Text:       split.Text,
				TextBefore: split.TextBefore,
				Node:       node,
			}
		}
		return nil
	}

	tag := p.state.pending
	next, err := p.backend.ExtractTextNext(tag.Node, tag.Kind, tag.Text, node)
	if err != nil {
		return err
	}

	if next.Boundary {
		return NewTemplateError("found not closed tag", FoldKey(tag.Text))
	}

	if next.Continue {
		if len(next.Text) > len(tag.Text) {
			node.SetContent("")
		}
		tag.Text = next.Text
		return nil
	}

	tag.Text = next.Text
	tag.TextAfter = next.TextAfter
	tag.EndNode = node
	node.SetContent(next.TextAfter)
	p.state.pending = nil
	if err := p.finish(tag); err != nil {
		return err
	}

	// the rest of the end node may hold the next tag
	if strings.TrimSpace(next.TextAfter) == "" {
		return nil
	}
	return p.visit(node)
}

// finish resolves a complete tag and places it in the block forest
func (p *parser) finish(tag *Tag) error {
	tag.Key = FoldKey(tag.Text)
	tag.Row = -1

	key := tag.Key
	if tag.Kind == TagCell {
		dataset, row, column, err := splitCellKey(tag.Key)
		if err != nil {
			return err
		}
		key = dataset
		tag.Row = row
		if col, ok := p.resolver.Resolve(column); ok {
			tag.Column = col
		} else if p.strict {
			return NewPropertyError(tag.Key, fmt.Sprintf("column <%s> not found", column))
		}
	}

	property, ok := p.resolver.Resolve(key)
	if !ok {
		if p.strict {
			return NewPropertyError(tag.Key, "key not found")
		}
		p.logger.WithField("tag", tag.Key).Debug("unresolved tag renders empty")
	}

	if ok && tag.Kind == TagField && property.IsColumn() {
		if p.state.current() == nil {
			return NewTemplateError("column tag outside of a dataset block", tag.Key)
		}
		tag.Kind = TagColumn
	}

	if ok {
		if err := p.check(tag, property); err != nil {
			return err
		}
		tag.Property = property
	}

	switch tag.Kind {
	case TagBlockFinish:
		open := p.state.current()
		if open == nil {
			return NewTemplateError("no open block for finish tag", tag.Key)
		}
		if open.Key() != tag.Key {
			return NewTemplateError(fmt.Sprintf("open block <%s> does not match finish tag <%s>", open.Key(), tag.Key), tag.Key)
		}
		main, err := p.mainNode(tag)
		if err != nil {
			return err
		}
		tag.MainNode = main
		p.state.pop().Finish = tag

	case TagBlockStart:
		if len(p.state.stack) >= p.maxDepth {
			return NewTemplateError(fmt.Sprintf("blocks nested deeper than %d", p.maxDepth), tag.Key)
		}
		main, err := p.mainNode(tag)
		if err != nil {
			return err
		}
		tag.MainNode = main
		block := &Block{Kind: ComplexBlock, Start: tag}
		p.state.add(block)
		p.state.push(block)

	default:
		p.state.add(&Block{Kind: SimpleBlock, Start: tag})
	}

	return nil
}

// check verifies that the resolved property fits the tag kind
func (p *parser) check(tag *Tag, property Property) error {
	switch property.Kind {
	case PropertyField:
		if tag.Kind != TagField {
			return NewPropertyError(tag.Key, fmt.Sprintf("field <%s> used in a %s tag", property, tag.Kind))
		}

	case PropertyColumn:
		if tag.Kind != TagColumn {
			return NewPropertyError(tag.Key, fmt.Sprintf("column <%s> used in a %s tag", property, tag.Kind))
		}
		dataset := p.state.current().Start.Property
		if dataset.Valid() && !dataset.Contains(property) {
			return NewPropertyError(tag.Key, fmt.Sprintf("column <%s> not found in dataset <%s>", property, dataset))
		}

	case PropertyDataset:
		if tag.Kind != TagCell && !tag.Kind.IsBlock() {
			return NewPropertyError(tag.Key, fmt.Sprintf("dataset <%s> used in a %s tag", property, tag.Kind))
		}
		if tag.Kind == TagCell && tag.Column.Valid() && !property.Contains(tag.Column) {
			return NewPropertyError(tag.Key, fmt.Sprintf("column <%s> not found in dataset <%s>", tag.Column, property))
		}

	default:
		return NewPropertyError(tag.Key, fmt.Sprintf("unsupported property kind %s", property.Kind))
	}
	return nil
}

func (p *parser) mainNode(tag *Tag) (Node, error) {
	main, err := p.backend.MainNode(tag.Node, tag.Kind, tag.Key)
	if err != nil {
		return nil, err
	}
	if main == nil {
		return nil, NewTemplateError("no structural node for block tag", tag.Key)
	}
	return main, nil
}

// splitCellKey decodes a dataset:row:column cell key
func splitCellKey(key string) (dataset string, row int, column string, err error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return "", 0, "", NewTemplateError("cell tag must have the form dataset:row:column", key)
	}

	dataset = strings.TrimSpace(parts[0])
	column = strings.TrimSpace(parts[2])
	row, convErr := strconv.Atoi(strings.TrimSpace(parts[1]))
	if convErr != nil || row < 0 || dataset == "" || column == "" {
		return "", 0, "", NewTemplateError("cell tag must have the form dataset:row:column", key)
	}
	return dataset, row, column, nil
}
