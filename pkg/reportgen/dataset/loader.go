package dataset

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
)

// base64Prefix marks an inline image value
const base64Prefix = "base64:"

type documentFile struct {
	Fields []fieldFile `json:"fields" yaml:"fields"`
	Tables []tableFile `json:"tables" yaml:"tables"`
}

type fieldFile struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

type columnFile struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

type tableFile struct {
	ID      int          `json:"id" yaml:"id"`
	Name    string       `json:"name" yaml:"name"`
	Columns []columnFile `json:"columns" yaml:"columns"`
	Rows    [][]any      `json:"rows" yaml:"rows"`
}

// LoadFile reads a YAML or JSON data file. Image paths are relative to the
// directory of the file.
func LoadFile(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Load(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load reads a data description from r. JSON is accepted as YAML.
//
//	fields:
//	  - name: title
//	    value: Monthly report
//	  - name: logo
//	    type: image
//	    value: logo.png
//	tables:
//	  - name: items
//	    columns:
//	      - name: item
//	      - name: qty
//	    rows:
//	      - [Apple, 3]
//
// Values of image properties are file names relative to baseDir, or base64 data
// after a "base64:" prefix. Properties without an explicit id take the lowest
// free ids in file order.
func Load(r io.Reader, baseDir string) (*Container, error) {
	var doc documentFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return New(), nil
		}
		return nil, fmt.Errorf("dataset: parse: %w", err)
	}

	c := New()
	if err := reserveIDs(c, doc); err != nil {
		return nil, err
	}

	for _, f := range doc.Fields {
		typ, err := parseType(f.Type, f.Name)
		if err != nil {
			return nil, err
		}
		id := c.add(reportgen.Property{
			ID:   reportgen.PropertyID(f.ID),
			Name: f.Name,
			Kind: reportgen.PropertyField,
			Type: typ,
		})
		value, err := loadValue(f.Value, typ, baseDir)
		if err != nil {
			return nil, fmt.Errorf("dataset: field %s: %w", f.Name, err)
		}
		c.values[id] = value
	}

	for _, t := range doc.Tables {
		id := c.add(reportgen.Property{
			ID:   reportgen.PropertyID(t.ID),
			Name: t.Name,
			Kind: reportgen.PropertyDataset,
		})
		tab := &table{}
		c.tables[id] = tab

		types := make([]reportgen.ValueType, len(t.Columns))
		for i, col := range t.Columns {
			typ, err := parseType(col.Type, col.Name)
			if err != nil {
				return nil, err
			}
			types[i] = typ
			tab.columns = append(tab.columns, c.add(reportgen.Property{
				ID:      reportgen.PropertyID(col.ID),
				Name:    col.Name,
				Kind:    reportgen.PropertyColumn,
				Type:    typ,
				Dataset: id,
			}))
		}

		for i, row := range t.Rows {
			if len(row) > len(t.Columns) {
				return nil, fmt.Errorf("dataset: table %s row %d has %d values for %d columns",
					t.Name, i, len(row), len(t.Columns))
			}
			values := make([]any, len(t.Columns))
			for j, v := range row {
				value, err := loadValue(v, types[j], baseDir)
				if err != nil {
					return nil, fmt.Errorf("dataset: table %s row %d column %s: %w", t.Name, i, t.Columns[j].Name, err)
				}
				values[j] = value
			}
			tab.rows = append(tab.rows, values)
		}
	}

	return c, nil
}

// reserveIDs checks explicit ids up front so numbering skips them
func reserveIDs(c *Container, doc documentFile) error {
	seen := map[int]string{}
	check := func(id int, name string) error {
		if id == 0 {
			return nil
		}
		if err := c.reserve(reportgen.PropertyID(id)); err != nil {
			return fmt.Errorf("dataset: %s: %w", name, err)
		}
		if other, ok := seen[id]; ok {
			return fmt.Errorf("dataset: %s and %s share id %d", other, name, id)
		}
		seen[id] = name
		return nil
	}

	for _, f := range doc.Fields {
		if err := check(f.ID, f.Name); err != nil {
			return err
		}
	}
	for _, t := range doc.Tables {
		if err := check(t.ID, t.Name); err != nil {
			return err
		}
		for _, col := range t.Columns {
			if err := check(col.ID, col.Name); err != nil {
				return err
			}
		}
	}

	for id, name := range seen {
		c.props[reportgen.PropertyID(id)] = reportgen.Property{ID: reportgen.PropertyID(id), Name: name, Kind: reportgen.PropertyField}
	}
	return nil
}

func parseType(typ, name string) (reportgen.ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text", "scalar":
		return reportgen.ScalarValue, nil
	case "image":
		return reportgen.ImageValue, nil
	default:
		return 0, fmt.Errorf("dataset: %s: unknown type %q", name, typ)
	}
}

func loadValue(v any, typ reportgen.ValueType, baseDir string) (any, error) {
	if typ != reportgen.ImageValue || v == nil {
		return v, nil
	}

	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("image value must be a file name or base64 data, got %T", v)
	}
	if s == "" {
		return nil, nil
	}

	var data []byte
	if strings.HasPrefix(s, base64Prefix) {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(strings.TrimPrefix(s, base64Prefix)))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		data = decoded
	} else {
		path := s
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		read, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		data = read
	}

	return reportgen.NewImage(data)
}
