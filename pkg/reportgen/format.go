package reportgen

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// formatter turns data source values into document text
type formatter struct {
	language       language.Tag
	fieldLanguages map[PropertyID]language.Tag
	dateFormat     string
	printers       map[language.Tag]*message.Printer
}

func newFormatter(lang language.Tag, fieldLanguages map[PropertyID]language.Tag, dateFormat string) *formatter {
	if dateFormat == "" {
		dateFormat = DefaultConfig().DateFormat
	}
	return &formatter{
		language:       lang,
		fieldLanguages: fieldLanguages,
		dateFormat:     dateFormat,
		printers:       make(map[language.Tag]*message.Printer),
	}
}

// languageFor returns the language used for a property
func (f *formatter) languageFor(p Property) language.Tag {
	if tag, ok := f.fieldLanguages[p.ID]; ok {
		return tag
	}
	return f.language
}

func (f *formatter) printer(tag language.Tag) *message.Printer {
	p, ok := f.printers[tag]
	if !ok {
		p = message.NewPrinter(tag)
		f.printers[tag] = p
	}
	return p
}

// Format renders a value for the given property
func (f *formatter) Format(p Property, v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(f.dateFormat)
	case fmt.Stringer:
		return val.String()
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return f.printer(f.languageFor(p)).Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}
