package book

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lepinkainen/bookfill/internal/datastore"
)

// Strategy names how a search key was derived.
type Strategy string

const (
	StrategyISBN        Strategy = "isbn"
	StrategyTitleAuthor Strategy = "title_author"
	StrategySlug        Strategy = "slug"
)

// SearchKey is a free-text query for the bibliographic search.
type SearchKey struct {
	Strategy Strategy
	Query    string
}

var (
	isbnPattern = regexp.MustCompile(`\b(\d{13}|\d{10})\b`)
	slugPattern = regexp.MustCompile(`/book/show/\d+-([A-Za-z0-9\-]+)`)
	// spreadsheet exports wrap ISBNs as ="9781234567897"
	isbnArtifacts = strings.NewReplacer(`"`, "", "=", "")
)

// CleanISBN extracts a 13 or 10 digit ISBN from raw text. Returns "" when none is found.
func CleanISBN(raw string) string {
	s := strings.TrimSpace(isbnArtifacts.Replace(raw))
	if s == "" {
		return ""
	}
	m := isbnPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// SlugFromURL returns the title slug of a Goodreads book URL with hyphens
// replaced by spaces, e.g. ".../book/show/12345-the-great-book" -> "the great book".
func SlugFromURL(u string) string {
	if u == "" {
		return ""
	}
	m := slugPattern.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], "-", " ")
}

// SearchKeys returns the usable search keys of a record in priority order:
// clean ISBN13, then title + author, then the source URL slug.
func SearchKeys(rec datastore.Record, columns ColumnMap) []SearchKey {
	var keys []SearchKey

	if isbn := CleanISBN(rec.Text(columns.Column(FieldISBN13))); isbn != "" {
		keys = append(keys, SearchKey{Strategy: StrategyISBN, Query: isbn})
	}

	title := rec.Text(columns.Column(FieldTitle))
	author := rec.Text(columns.Column(FieldAuthor))
	if q := strings.TrimSpace(title + " " + author); q != "" {
		keys = append(keys, SearchKey{Strategy: StrategyTitleAuthor, Query: q})
	}

	if slug := SlugFromURL(rec.Text(columns.Column(FieldSourceURL))); slug != "" {
		keys = append(keys, SearchKey{Strategy: StrategySlug, Query: slug})
	}

	return keys
}

// SourceRef returns what the cover scrape should look up for a record: the
// numeric source id when known, otherwise the source URL. "" when neither is set.
func SourceRef(rec datastore.Record, columns ColumnMap) string {
	id := rec.Value(columns.Column(FieldSourceID))
	switch {
	case id.Type == datastore.Number && id.Number != nil:
		n := *id.Number
		if n < 0 || n != math.Trunc(n) || math.IsInf(n, 0) {
			break
		}
		return strconv.FormatFloat(n, 'f', 0, 64)
	case id.Type.IsText() && isDigits(id.String()):
		return id.String()
	}
	return rec.Text(columns.Column(FieldSourceURL))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
