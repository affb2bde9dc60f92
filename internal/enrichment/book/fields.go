// Package book reconciles book metadata fetched from external sources with
// the typed columns of a page store record.
package book

import (
	"fmt"
	"strings"
)

// Field is a logical book metadata field, independent of the column it is stored in.
type Field string

const (
	FieldTitle             Field = "title"
	FieldAuthor            Field = "author"
	FieldAdditionalAuthors Field = "additional_authors"
	FieldPublisher         Field = "publisher"
	FieldLanguage          Field = "language"
	FieldDescription       Field = "description"
	FieldPageCount         Field = "page_count"
	FieldYearPublished     Field = "year_published"
	FieldOriginalYear      Field = "original_year"
	FieldAverageRating     Field = "average_rating"
	FieldISBN              Field = "isbn"
	FieldISBN13            Field = "isbn13"
	FieldSourceID          Field = "source_id"
	FieldCoverURL          Field = "cover_url"
	FieldAltCoverURL       Field = "alt_cover_url"
	FieldSourceURL         Field = "source_url"
)

// FieldOrder is the write priority of the logical fields.
var FieldOrder = []Field{
	FieldTitle,
	FieldAuthor,
	FieldAdditionalAuthors,
	FieldPublisher,
	FieldLanguage,
	FieldDescription,
	FieldPageCount,
	FieldYearPublished,
	FieldOriginalYear,
	FieldAverageRating,
	FieldISBN,
	FieldISBN13,
	FieldSourceID,
	FieldCoverURL,
	FieldAltCoverURL,
	FieldSourceURL,
}

// EnrichTargets are the fields the providers fill. A page missing any of them
// is due for enrichment.
var EnrichTargets = []Field{
	FieldTitle,
	FieldAuthor,
	FieldPublisher,
	FieldLanguage,
	FieldDescription,
	FieldPageCount,
	FieldYearPublished,
	FieldISBN13,
	FieldCoverURL,
}

// DefaultSyncedColumn is the column stamped with the time of the last sync.
const DefaultSyncedColumn = "LastSynced"

// ColumnMap maps logical fields to column names.
type ColumnMap map[Field]string

// DefaultColumns returns the column names of a Goodreads library export imported into a database.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		FieldTitle:             "Title",
		FieldAuthor:            "Author",
		FieldAdditionalAuthors: "Additional Authors",
		FieldPublisher:         "Publisher",
		FieldLanguage:          "Language",
		FieldDescription:       "Description",
		FieldPageCount:         "Number of Pages",
		FieldYearPublished:     "Year Published",
		FieldOriginalYear:      "Original Publication Year",
		FieldAverageRating:     "Average Rating",
		FieldISBN:              "ISBN",
		FieldISBN13:            "ISBN13",
		FieldSourceID:          "Book Id",
		FieldCoverURL:          "coverURL",
		FieldAltCoverURL:       "Cover URL",
		FieldSourceURL:         "goodreadsURL",
	}
}

// Column returns the column name for f, falling back to the default name.
func (m ColumnMap) Column(f Field) string {
	if name, ok := m[f]; ok && name != "" {
		return name
	}
	return DefaultColumns()[f]
}

// WithOverrides returns a copy of the default columns with overrides applied.
// Override keys are logical field names (e.g. "page_count").
func WithOverrides(overrides map[string]string) (ColumnMap, error) {
	columns := DefaultColumns()
	for key, column := range overrides {
		f := Field(strings.ToLower(strings.TrimSpace(key)))
		if _, ok := columns[f]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		if column = strings.TrimSpace(column); column != "" {
			columns[f] = column
		}
	}
	return columns, nil
}
