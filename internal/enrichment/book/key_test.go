package book

import (
	"testing"

	"github.com/lepinkainen/bookfill/internal/datastore"
	"github.com/stretchr/testify/assert"
)

func TestCleanISBN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"excel artifact", `="9781234567897"`, "9781234567897"},
		{"plain isbn13", "9780441013593", "9780441013593"},
		{"isbn10", "0441013597", "0441013597"},
		{"surrounded by text", "ISBN: 9780441013593 (pbk)", "9780441013593"},
		{"empty export cell", `=""`, ""},
		{"letters", "abc", ""},
		{"too short", "12345", ""},
		{"twelve digits", "123456789012", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanISBN(tt.input))
		})
	}
}

func TestSlugFromURL(t *testing.T) {
	assert.Equal(t, "the great book", SlugFromURL("https://example.com/book/show/12345-the-great-book"))
	assert.Equal(t, "dune messiah", SlugFromURL("https://www.goodreads.com/book/show/44492285-dune-messiah?ref=nav"))
	assert.Equal(t, "", SlugFromURL("https://www.goodreads.com/book/show/234225"))
	assert.Equal(t, "", SlugFromURL("https://example.com/other/12345-the-great-book"))
	assert.Equal(t, "", SlugFromURL(""))
}

func record(props map[string]datastore.Envelope) datastore.Record {
	return datastore.Record{ID: "page-1", Properties: props}
}

func TestSearchKeys_Priority(t *testing.T) {
	rec := record(map[string]datastore.Envelope{
		"ISBN13":       datastore.TextValue(datastore.RichText, `="9780441013593"`),
		"Title":        datastore.TextValue(datastore.Title, "Dune"),
		"Author":       datastore.TextValue(datastore.RichText, "Frank Herbert"),
		"goodreadsURL": datastore.URLValue("https://www.goodreads.com/book/show/234225-dune-chronicles"),
	})

	keys := SearchKeys(rec, DefaultColumns())
	assert.Equal(t, []SearchKey{
		{Strategy: StrategyISBN, Query: "9780441013593"},
		{Strategy: StrategyTitleAuthor, Query: "Dune Frank Herbert"},
		{Strategy: StrategySlug, Query: "dune chronicles"},
	}, keys)
}

func TestSearchKeys_TitleOnlyIsTrimmed(t *testing.T) {
	rec := record(map[string]datastore.Envelope{
		"Title": datastore.TextValue(datastore.Title, "Dune"),
	})

	keys := SearchKeys(rec, DefaultColumns())
	assert.Equal(t, []SearchKey{{Strategy: StrategyTitleAuthor, Query: "Dune"}}, keys)
}

func TestSearchKeys_NoKey(t *testing.T) {
	rec := record(map[string]datastore.Envelope{
		"ISBN13":       datastore.TextValue(datastore.RichText, "n/a"),
		"goodreadsURL": datastore.URLValue("https://www.goodreads.com/review/list/1"),
	})

	assert.Empty(t, SearchKeys(rec, DefaultColumns()))
}

func TestSearchKeys_CustomColumns(t *testing.T) {
	columns, err := WithOverrides(map[string]string{"title": "Name"})
	assert.NoError(t, err)

	rec := record(map[string]datastore.Envelope{
		"Name": datastore.TextValue(datastore.Title, "Dune"),
	})
	assert.Equal(t, []SearchKey{{Strategy: StrategyTitleAuthor, Query: "Dune"}}, SearchKeys(rec, columns))
}

func TestSourceRef(t *testing.T) {
	columns := DefaultColumns()

	byNumber := record(map[string]datastore.Envelope{
		"Book Id":      datastore.NumberValue(234225),
		"goodreadsURL": datastore.URLValue("https://www.goodreads.com/book/show/234225-dune"),
	})
	assert.Equal(t, "234225", SourceRef(byNumber, columns))

	byText := record(map[string]datastore.Envelope{
		"Book Id": datastore.TextValue(datastore.RichText, "44767458"),
	})
	assert.Equal(t, "44767458", SourceRef(byText, columns))

	byURL := record(map[string]datastore.Envelope{
		"Book Id":      {Type: datastore.Number},
		"goodreadsURL": datastore.URLValue("https://www.goodreads.com/book/show/234225-dune"),
	})
	assert.Equal(t, "https://www.goodreads.com/book/show/234225-dune", SourceRef(byURL, columns))

	assert.Equal(t, "", SourceRef(record(nil), columns))

	for _, bad := range []float64{1.5, -3} {
		fractional := record(map[string]datastore.Envelope{
			"Book Id":      datastore.NumberValue(bad),
			"goodreadsURL": datastore.URLValue("https://www.goodreads.com/book/show/234225-dune"),
		})
		assert.Equal(t, "https://www.goodreads.com/book/show/234225-dune", SourceRef(fractional, columns), "Book Id %v", bad)
		assert.Equal(t, "", SourceRef(record(map[string]datastore.Envelope{"Book Id": datastore.NumberValue(bad)}), columns), "Book Id %v", bad)
	}
}
