package googlebooks

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/lepinkainen/bookfill/internal/enrichment/book"
	"github.com/lepinkainen/bookfill/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duneVolumes = `{
  "totalItems": 1,
  "items": [{
    "id": "B1hSG45JCX4C",
    "volumeInfo": {
      "title": "Dune",
      "authors": ["Frank Herbert"],
      "publisher": "Penguin",
      "publishedDate": "1965-08-01",
      "description": "Set on the desert planet Arrakis.",
      "pageCount": 412,
      "language": "en",
      "averageRating": 4.5,
      "industryIdentifiers": [
        {"type": "ISBN_10", "identifier": "0441013597"},
        {"type": "ISBN_13", "identifier": "9780441013593"}
      ],
      "imageLinks": {"smallThumbnail": "http://x/s.jpg", "thumbnail": "http://x/t.jpg"}
    }
  }]
}`

func TestSearch_ConvertsFirstVolume(t *testing.T) {
	var gotQuery, gotKey, gotUA string
	server := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/volumes", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(duneVolumes))
	}))

	client := NewClient(WithBaseURL(server.URL+"/"), WithAPIKey("secret"), WithUserAgent("bookfill-test"))
	c := client.Search(context.Background(), "9780441013593")

	assert.Equal(t, "9780441013593", gotQuery)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "bookfill-test", gotUA)

	assert.Equal(t, "Dune", c.Get(book.FieldTitle))
	assert.Equal(t, "Frank Herbert", c.Get(book.FieldAuthor))
	assert.Equal(t, "Penguin", c.Get(book.FieldPublisher))
	assert.Equal(t, "1965", c.Get(book.FieldYearPublished))
	assert.Equal(t, 412, c.Get(book.FieldPageCount))
	assert.Equal(t, "EN", c.Get(book.FieldLanguage))
	assert.Equal(t, 4.5, c.Get(book.FieldAverageRating))
	assert.Equal(t, "9780441013593", c.Get(book.FieldISBN13))
	assert.Equal(t, "0441013597", c.Get(book.FieldISBN))
	assert.Equal(t, "Set on the desert planet Arrakis.", c.Get(book.FieldDescription))
	assert.Equal(t, "http://x/t.jpg", c.CoverURL)
}

func TestSearch_OmitsKeyWhenUnset(t *testing.T) {
	var hasKey bool
	server := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasKey = r.URL.Query()["key"]
		_, _ = w.Write([]byte(`{"totalItems": 0}`))
	}))

	c := NewClient(WithBaseURL(server.URL)).Search(context.Background(), "Dune Frank Herbert")
	assert.False(t, hasKey)
	assert.True(t, c.IsEmpty())
}

func TestSearch_SparseVolume(t *testing.T) {
	server := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"volumeInfo":{
			"title": "Dune Messiah",
			"authors": ["Frank Herbert", "Brian Herbert"],
			"publishedDate": "c. 1969",
			"imageLinks": {"smallThumbnail": "http://x/s.jpg"}
		}}]}`))
	}))

	c := NewClient(WithBaseURL(server.URL)).Search(context.Background(), "dune messiah")

	assert.Equal(t, "Frank Herbert, Brian Herbert", c.Get(book.FieldAuthor))
	assert.Nil(t, c.Get(book.FieldYearPublished), "non-numeric year prefix")
	assert.Nil(t, c.Get(book.FieldPageCount))
	assert.Nil(t, c.Get(book.FieldLanguage))
	assert.Equal(t, "http://x/s.jpg", c.CoverURL)
}

func TestSearch_FailuresYieldEmptyCandidate(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "backend error", http.StatusInternalServerError)
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items": [`))
		}},
		{"no volume info", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items": [{"id": "x"}]}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewIPv4TestServer(t, tt.handler)
			c := NewClient(WithBaseURL(server.URL)).Search(context.Background(), "dune")
			assert.True(t, c.IsEmpty())
		})
	}
}

func TestSearch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(release) })

	c := NewClient(WithBaseURL(server.URL), WithTimeout(50*time.Millisecond)).Search(context.Background(), "dune")
	assert.True(t, c.IsEmpty())
}

func TestSearch_BlankQuery(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:1")).Search(context.Background(), "   ")
	assert.True(t, c.IsEmpty())
}

func TestPublishedYear(t *testing.T) {
	assert.Equal(t, "1965", publishedYear("1965-08-01"))
	assert.Equal(t, "2001", publishedYear("2001"))
	assert.Equal(t, "", publishedYear("196"))
	assert.Equal(t, "", publishedYear("19xx-01-01"))
	assert.Equal(t, "", publishedYear(""))
}

func TestClientOptionsApply(t *testing.T) {
	custom := &http.Client{}
	client := NewClient(
		WithBaseURL("https://books.test/v1/"),
		WithAPIKey("  key  "),
		WithUserAgent("agent"),
		WithHTTPClient(custom),
	)

	assert.Equal(t, "https://books.test/v1", client.baseURL)
	assert.Equal(t, "key", client.apiKey)
	assert.Equal(t, "agent", client.userAgent)
	assert.Equal(t, custom, client.httpClient)

	defaults := NewClient(WithUserAgent(""), WithHTTPClient(nil), WithTimeout(0))
	assert.Equal(t, defaultBaseURL, defaults.baseURL)
	assert.Equal(t, defaultUserAgent, defaults.userAgent)
	assert.NotNil(t, defaults.httpClient)
}
