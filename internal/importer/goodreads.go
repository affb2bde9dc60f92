// Package importer seeds the local page store from a Goodreads library export.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lepinkainen/bookfill/internal/csvutil"
	"github.com/lepinkainen/bookfill/internal/datastore"
	"github.com/lepinkainen/bookfill/internal/enrichment/book"
)

// Seeder is the write side of a local page store.
type Seeder interface {
	DefineColumn(ctx context.Context, name string, t datastore.ColumnType) error
	PutPage(ctx context.Context, rec datastore.Record) error
}

const goodreadsBookURL = "https://www.goodreads.com/book/show/"

type column struct {
	name string
	typ  datastore.ColumnType
}

// exportColumns are copied from the export as-is.
var exportColumns = []column{
	{"Title", datastore.Title},
	{"Author", datastore.RichText},
	{"Additional Authors", datastore.RichText},
	{"ISBN", datastore.RichText},
	{"ISBN13", datastore.RichText},
	{"My Rating", datastore.Number},
	{"Average Rating", datastore.Number},
	{"Publisher", datastore.RichText},
	{"Binding", datastore.Select},
	{"Number of Pages", datastore.Number},
	{"Year Published", datastore.Number},
	{"Original Publication Year", datastore.Number},
	{"Date Read", datastore.Date},
	{"Date Added", datastore.Date},
	{"Exclusive Shelf", datastore.Select},
	{"Book Id", datastore.Number},
}

// enrichmentColumns are not part of the export but are filled by enrich runs.
var enrichmentColumns = []column{
	{"Language", datastore.Select},
	{"Description", datastore.RichText},
	{"coverURL", datastore.URL},
	{"Cover URL", datastore.URL},
	{"goodreadsURL", datastore.URL},
	{book.DefaultSyncedColumn, datastore.Date},
}

// GoodreadsSchema returns the column set created by ImportGoodreads.
func GoodreadsSchema() datastore.Schema {
	schema := make(datastore.Schema, len(exportColumns)+len(enrichmentColumns))
	for _, c := range exportColumns {
		schema[c.name] = c.typ
	}
	for _, c := range enrichmentColumns {
		schema[c.name] = c.typ
	}
	return schema
}

// ImportGoodreads defines the library columns and stores one page per book in
// the export. Existing pages with the same book id are replaced.
func ImportGoodreads(ctx context.Context, store Seeder, csvPath string) (int, error) {
	records, err := csvutil.ProcessCSV(csvPath, parseGoodreadsRow, csvutil.ProcessorOptions{
		Required:    []string{"Book Id", "Title"},
		SkipInvalid: true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read Goodreads export: %w", err)
	}

	for name, typ := range GoodreadsSchema() {
		if err := store.DefineColumn(ctx, name, typ); err != nil {
			return 0, err
		}
	}

	for i, rec := range records {
		if err := store.PutPage(ctx, rec); err != nil {
			return i, err
		}
	}

	slog.Info("Imported Goodreads export", "path", csvPath, "books", len(records))
	return len(records), nil
}

func parseGoodreadsRow(row csvutil.Row) (datastore.Record, error) {
	id := row.Get("Book Id")
	if id == "" || strings.Trim(id, "0123456789") != "" {
		return datastore.Record{}, fmt.Errorf("invalid book id %q", id)
	}

	rec := datastore.Record{
		ID:         "goodreads-" + id,
		Properties: make(map[string]datastore.Envelope),
	}

	for _, c := range exportColumns {
		value := row.Get(c.name)
		switch c.name {
		case "ISBN", "ISBN13":
			value = book.CleanISBN(value)
		case "Date Read", "Date Added":
			value = exportDate(value)
		}
		if env, ok := book.Encode(c.typ, value); ok {
			rec.Properties[c.name] = env
		}
	}
	rec.Properties["goodreadsURL"] = datastore.URLValue(goodreadsBookURL + id)

	return rec, nil
}

// exportDate converts the export's 2006/01/02 dates to ISO-8601.
func exportDate(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse("2006/01/02", value)
	if err != nil {
		return value
	}
	return t.Format(time.DateOnly)
}
