package datastore

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnType is the declared type of a page store column.
type ColumnType int

const (
	// Unsupported covers every column type bookfill cannot read or write
	// (people, relations, formulas, files, ...).
	Unsupported ColumnType = iota
	Title
	RichText
	Number
	URL
	Select
	Date
)

var columnTypeNames = map[ColumnType]string{
	Unsupported: "unsupported",
	Title:       "title",
	RichText:    "rich_text",
	Number:      "number",
	URL:         "url",
	Select:      "select",
	Date:        "date",
}

// String returns the wire name of the column type.
func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// IsText reports whether values of this type are text runs.
func (t ColumnType) IsText() bool {
	return t == Title || t == RichText
}

// ParseColumnType maps a wire type name to a ColumnType. Unknown names map to Unsupported.
func ParseColumnType(name string) ColumnType {
	for t, n := range columnTypeNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return t
		}
	}
	return Unsupported
}

// Schema maps column names to their declared types.
type Schema map[string]ColumnType

// Has reports whether the schema declares the column.
func (s Schema) Has(column string) bool {
	_, ok := s[column]
	return ok
}

// Envelope is a typed column value. Only the slot matching Type is meaningful.
type Envelope struct {
	Type   ColumnType
	Text   string
	Number *float64
	URL    string
	Choice string
	Date   string
}

// TextValue wraps s as a text run for a title or rich text column.
func TextValue(t ColumnType, s string) Envelope {
	return Envelope{Type: t, Text: s}
}

// NumberValue wraps f for a number column.
func NumberValue(f float64) Envelope {
	return Envelope{Type: Number, Number: &f}
}

// URLValue wraps u for a url column.
func URLValue(u string) Envelope {
	return Envelope{Type: URL, URL: u}
}

// ChoiceValue wraps name as a single choice.
func ChoiceValue(name string) Envelope {
	return Envelope{Type: Select, Choice: name}
}

// DateValue wraps an ISO-8601 start date.
func DateValue(start string) Envelope {
	return Envelope{Type: Date, Date: start}
}

// IsEmpty reports whether the envelope carries no value.
func (e Envelope) IsEmpty() bool {
	switch e.Type {
	case Title, RichText:
		return strings.TrimSpace(e.Text) == ""
	case Number:
		return e.Number == nil
	case URL:
		return e.URL == ""
	case Select:
		return e.Choice == ""
	case Date:
		return e.Date == ""
	case Unsupported:
		return true
	}
	return true
}

// String returns the value as plain text, or "" when empty.
func (e Envelope) String() string {
	switch e.Type {
	case Title, RichText:
		return strings.TrimSpace(e.Text)
	case Number:
		if e.Number == nil {
			return ""
		}
		return strconv.FormatFloat(*e.Number, 'f', -1, 64)
	case URL:
		return e.URL
	case Select:
		return e.Choice
	case Date:
		return e.Date
	}
	return ""
}
