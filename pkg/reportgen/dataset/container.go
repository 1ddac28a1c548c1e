// Package dataset provides an in-memory data source for reportgen.
//
// A Container holds a schema of fields and tables together with their values.
// Property ids are assigned in the order properties are added, starting at 1.
package dataset

import (
	"fmt"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
)

type table struct {
	columns []reportgen.PropertyID
	rows    [][]any
}

// Container is a mutable data source. It is not safe for concurrent writes.
type Container struct {
	props  map[reportgen.PropertyID]reportgen.Property
	order  []reportgen.PropertyID
	values map[reportgen.PropertyID]any
	tables map[reportgen.PropertyID]*table
	nextID reportgen.PropertyID
}

// New creates an empty container
func New() *Container {
	return &Container{
		props:  map[reportgen.PropertyID]reportgen.Property{},
		values: map[reportgen.PropertyID]any{},
		tables: map[reportgen.PropertyID]*table{},
		nextID: reportgen.MinimumPropertyID,
	}
}

func (c *Container) add(p reportgen.Property) reportgen.PropertyID {
	if p.ID == 0 {
		for c.props[c.nextID].Valid() {
			c.nextID++
		}
		p.ID = c.nextID
	}
	c.props[p.ID] = p
	c.order = append(c.order, p.ID)
	return p.ID
}

func (c *Container) reserve(id reportgen.PropertyID) error {
	if id == 0 {
		return nil
	}
	if id < reportgen.MinimumPropertyID {
		return fmt.Errorf("property id %d is below %d", id, reportgen.MinimumPropertyID)
	}
	if _, ok := c.props[id]; ok {
		return fmt.Errorf("property id %d is already in use", id)
	}
	return nil
}

// AddField adds a single-valued field and returns its id
func (c *Container) AddField(name string, typ reportgen.ValueType) reportgen.PropertyID {
	return c.add(reportgen.Property{Name: name, Kind: reportgen.PropertyField, Type: typ})
}

// AddTable adds an empty dataset and returns its id
func (c *Container) AddTable(name string) reportgen.PropertyID {
	id := c.add(reportgen.Property{Name: name, Kind: reportgen.PropertyDataset})
	c.tables[id] = &table{}
	return id
}

// AddColumn adds a column to a dataset. Rows appended earlier get a nil cell.
func (c *Container) AddColumn(dataset reportgen.PropertyID, name string, typ reportgen.ValueType) (reportgen.PropertyID, error) {
	t, err := c.table(dataset)
	if err != nil {
		return 0, err
	}
	id := c.add(reportgen.Property{Name: name, Kind: reportgen.PropertyColumn, Type: typ, Dataset: dataset})
	t.columns = append(t.columns, id)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], nil)
	}
	return id, nil
}

// SetValue sets the value of a field
func (c *Container) SetValue(field reportgen.PropertyID, value any) error {
	p, ok := c.props[field]
	if !ok || p.Kind != reportgen.PropertyField {
		return fmt.Errorf("property %d is not a field", field)
	}
	c.values[field] = value
	return nil
}

// AppendRow adds a row to a dataset. Values are given in column order; missing
// trailing values are nil.
func (c *Container) AppendRow(dataset reportgen.PropertyID, values ...any) error {
	t, err := c.table(dataset)
	if err != nil {
		return err
	}
	if len(values) > len(t.columns) {
		return fmt.Errorf("row has %d values but dataset %s has %d columns",
			len(values), c.props[dataset], len(t.columns))
	}
	row := make([]any, len(t.columns))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

func (c *Container) table(dataset reportgen.PropertyID) (*table, error) {
	t, ok := c.tables[dataset]
	if !ok {
		return nil, fmt.Errorf("property %d is not a dataset", dataset)
	}
	return t, nil
}

// Keys maps every property name to its id. A later property with the same name
// wins.
func (c *Container) Keys() reportgen.KeyMap {
	keys := make(reportgen.KeyMap, len(c.order))
	for _, id := range c.order {
		keys[c.props[id].Name] = id
	}
	return keys
}

// Properties returns the schema in the order it was built
func (c *Container) Properties() []reportgen.Property {
	props := make([]reportgen.Property, len(c.order))
	for i, id := range c.order {
		props[i] = c.props[id]
	}
	return props
}

func (c *Container) Property(id reportgen.PropertyID) (reportgen.Property, bool) {
	p, ok := c.props[id]
	return p, ok
}

func (c *Container) RowCount(dataset reportgen.PropertyID) (int, error) {
	t, err := c.table(dataset)
	if err != nil {
		return 0, err
	}
	return len(t.rows), nil
}

func (c *Container) Value(field reportgen.PropertyID) (any, error) {
	p, ok := c.props[field]
	if !ok || p.Kind != reportgen.PropertyField {
		return nil, fmt.Errorf("property %d is not a field", field)
	}
	return c.values[field], nil
}

// Cell returns the value of a column in a row. Rows out of range give nil.
func (c *Container) Cell(column reportgen.PropertyID, row int) (any, error) {
	p, ok := c.props[column]
	if !ok || p.Kind != reportgen.PropertyColumn {
		return nil, fmt.Errorf("property %d is not a column", column)
	}
	t := c.tables[p.Dataset]
	if row < 0 || row >= len(t.rows) {
		return nil, nil
	}
	for i, id := range t.columns {
		if id == column {
			return t.rows[row][i], nil
		}
	}
	return nil, nil
}
