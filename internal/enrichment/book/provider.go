package book

import "context"

// Searcher looks up book metadata by free-text query. Implementations
// never fail: network errors, bad responses and empty result sets all
// produce an empty Candidate.
type Searcher interface {
	Search(ctx context.Context, query string) Candidate
}

// CoverScraper finds a cover image URL from a numeric book id or a page URL.
// Returns "" on any failure.
type CoverScraper interface {
	Cover(ctx context.Context, idOrURL string) string
}
