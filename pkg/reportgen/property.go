package reportgen

import (
	"fmt"
	"sort"
	"strconv"
)

// PropertyID identifies a property in a data source schema
type PropertyID int

// MinimumPropertyID is the lowest id a valid property can carry
const MinimumPropertyID PropertyID = 1

// PropertyKind is the role of a property in the data model
type PropertyKind int

const (
	PropertyInvalid PropertyKind = iota
	PropertyField
	PropertyDataset
	PropertyColumn
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyField:
		return "field"
	case PropertyDataset:
		return "dataset"
	case PropertyColumn:
		return "column"
	default:
		return "invalid"
	}
}

// ValueType is the declared type of a field or column value
type ValueType int

const (
	ScalarValue ValueType = iota
	ImageValue
)

// Property describes a field, a dataset or a dataset column
type Property struct {
	ID   PropertyID
	Name string
	Kind PropertyKind
	Type ValueType
	// Dataset is the owning dataset of a column
	Dataset PropertyID
}

// Valid reports whether p refers to a property
func (p Property) Valid() bool {
	return p.ID >= MinimumPropertyID && p.Kind != PropertyInvalid
}

func (p Property) IsColumn() bool {
	return p.Kind == PropertyColumn
}

// Contains reports whether the column c belongs to the dataset p
func (p Property) Contains(c Property) bool {
	return p.Kind == PropertyDataset && c.Kind == PropertyColumn && c.Dataset == p.ID
}

func (p Property) String() string {
	if p.Name != "" {
		return p.Name
	}
	return strconv.Itoa(int(p.ID))
}

// KeyMap maps tag keys to property ids
type KeyMap map[string]PropertyID

// DataSource is the read-only data contract used during generation
type DataSource interface {
	Property(id PropertyID) (Property, bool)
	RowCount(dataset PropertyID) (int, error)
	Value(field PropertyID) (any, error)
	Cell(column PropertyID, row int) (any, error)
}

// Resolver maps tag keys to properties
type Resolver struct {
	source  DataSource
	keys    map[string]PropertyID
	autoMap bool
}

// NewResolver folds the keys of the key map and checks that every id exists in the source
func NewResolver(source DataSource, keys KeyMap, autoMap bool) (*Resolver, error) {
	if source == nil {
		return nil, NewPropertyError("", "no data source")
	}

	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	folded := make(map[string]PropertyID, len(keys))
	errs := NewMultiError()
	for _, name := range names {
		id := keys[name]
		key := FoldKey(name)
		if _, ok := source.Property(id); !ok {
			errs.Add(NewPropertyError(name, fmt.Sprintf("property %d not found in data source", id)))
			continue
		}
		if prev, ok := folded[key]; ok && prev != id {
			errs.Add(NewPropertyError(name, fmt.Sprintf("key maps to both %d and %d", prev, id)))
			continue
		}
		folded[key] = id
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &Resolver{
		source:  source,
		keys:    folded,
		autoMap: autoMap,
	}, nil
}

// Resolve returns the property for a tag key. An exact key match always wins over
// numeric auto-mapping.
func (r *Resolver) Resolve(key string) (Property, bool) {
	key = FoldKey(key)
	if id, ok := r.keys[key]; ok {
		return r.source.Property(id)
	}

	if !r.autoMap {
		return Property{}, false
	}
	n, err := strconv.ParseUint(key, 10, 31)
	if err != nil || PropertyID(n) < MinimumPropertyID {
		return Property{}, false
	}
	return r.source.Property(PropertyID(n))
}
