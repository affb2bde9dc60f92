package syncer

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/lepinkainen/bookfill/internal/datastore"
	"github.com/lepinkainen/bookfill/internal/enrichment/book"
	"github.com/lepinkainen/bookfill/internal/enrichment/goodreads"
	"github.com/lepinkainen/bookfill/internal/enrichment/googlebooks"
	"github.com/lepinkainen/bookfill/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duneVolumes = `{"items":[{"volumeInfo":{
	"title": "Dune",
	"authors": ["Frank Herbert"],
	"publishedDate": "1965",
	"pageCount": 412,
	"imageLinks": {"thumbnail": "http://x/t.jpg"}
}}]}`

func newLibraryStore(t *testing.T, schema datastore.Schema, records ...datastore.Record) *datastore.SQLiteStore {
	t.Helper()

	store := datastore.NewSQLiteStore(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, store.Connect())
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for name, typ := range schema {
		require.NoError(t, store.DefineColumn(ctx, name, typ))
	}
	for _, rec := range records {
		require.NoError(t, store.PutPage(ctx, rec))
	}
	return store
}

func newBooksServer(t *testing.T, body string) *googlebooks.Client {
	t.Helper()
	server := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	return googlebooks.NewClient(googlebooks.WithBaseURL(server.URL))
}

func TestEndToEnd_DuneWithSlowGoodreads(t *testing.T) {
	release := make(chan struct{})
	slow := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(release) })

	store := newLibraryStore(t, librarySchema(), duneRecord())
	searcher := newBooksServer(t, duneVolumes)
	scraper := goodreads.NewScraper(goodreads.WithBaseURL(slow.URL), goodreads.WithTimeout(50*time.Millisecond))

	summary, err := New(store, searcher, scraper, Options{Mode: ModeEnrich}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	rec, err := store.Get(context.Background(), "page-dune")
	require.NoError(t, err)
	assert.Equal(t, "Dune", rec.Text("Title"))
	assert.Equal(t, "Frank Herbert", rec.Text("Author"))
	assert.Equal(t, "412", rec.Text("Number of Pages"))
	assert.Equal(t, "1965", rec.Text("Year Published"))
	assert.Equal(t, "http://x/t.jpg", rec.Text("coverURL"))
	assert.Equal(t, "http://x/t.jpg", rec.Cover)

	// a second run finds nothing left to fill
	summary, err = New(store, searcher, scraper, Options{Mode: ModeEnrich}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Seen)
}

func TestEndToEnd_ScrapeFailureWithoutThumbnail(t *testing.T) {
	goodreadsDown := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))

	store := newLibraryStore(t, librarySchema(), duneRecord())
	searcher := newBooksServer(t, `{"items":[{"volumeInfo":{"title":"Dune"}}]}`)
	scraper := goodreads.NewScraper(goodreads.WithBaseURL(goodreadsDown.URL))

	summary, err := New(store, searcher, scraper, Options{Mode: ModeEnrich}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	rec, err := store.Get(context.Background(), "page-dune")
	require.NoError(t, err)
	assert.Equal(t, "Dune", rec.Text("Title"))
	assert.Empty(t, rec.Cover)
	assert.Empty(t, rec.Text("coverURL"))
}

func TestEndToEnd_CoversFromGoodreads(t *testing.T) {
	page := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book/show/44767458", r.URL.Path)
		_, _ = w.Write([]byte(`<meta property="og:image" content="https://gr/cover.jpg">`))
	}))

	schema := librarySchema()
	schema["Cover URL"] = datastore.URL
	store := newLibraryStore(t, schema, duneRecord())
	scraper := goodreads.NewScraper(goodreads.WithBaseURL(page.URL))
	searcher := googlebooks.NewClient(googlebooks.WithBaseURL("http://127.0.0.1:1"))

	summary, err := New(store, searcher, scraper, Options{Mode: ModeCovers, CoverPriority: book.DefaultCoverPriority()}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	rec, err := store.Get(context.Background(), "page-dune")
	require.NoError(t, err)
	assert.Equal(t, "https://gr/cover.jpg", rec.Cover)
	assert.Equal(t, "https://gr/cover.jpg", rec.Text("coverURL"))
	assert.Equal(t, "https://gr/cover.jpg", rec.Text("Cover URL"))
}
