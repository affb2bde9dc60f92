package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lepinkainen/bookfill/internal/datastore"
	"github.com/lepinkainen/bookfill/internal/enrichment/book"
)

type recordedUpdate struct {
	id         string
	properties map[string]datastore.Envelope
	cover      string
}

// fakeStore is an in-memory datastore.Store that evaluates filters like the SQLite backend.
type fakeStore struct {
	mu        sync.Mutex
	schema    datastore.Schema
	records   []datastore.Record
	schemaErr error
	queryErr  error
	updateErr map[string]error

	filters []*datastore.Filter
	updates []recordedUpdate
}

func (f *fakeStore) RetrieveSchema(ctx context.Context) (datastore.Schema, error) {
	if f.schemaErr != nil {
		return nil, f.schemaErr
	}
	return f.schema, nil
}

func (f *fakeStore) Query(ctx context.Context, filter *datastore.Filter, cursor string, pageSize int) (*datastore.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.filters = append(f.filters, filter)

	var matched []datastore.Record
	for _, rec := range f.records {
		if filter.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	start := 0
	if cursor != "" {
		for i, rec := range matched {
			if rec.ID == cursor {
				start = i + 1
			}
		}
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	result := &datastore.QueryResult{Results: matched[start:end]}
	if end < len(matched) {
		result.HasMore = true
		result.NextCursor = matched[end-1].ID
	}
	return result, nil
}

func (f *fakeStore) Get(ctx context.Context, pageID string) (*datastore.Record, error) {
	for _, rec := range f.records {
		if rec.ID == pageID {
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("page %s: %w", pageID, errNotFound)
}

func (f *fakeStore) Update(ctx context.Context, pageID string, properties map[string]datastore.Envelope, cover string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.updateErr[pageID]; err != nil {
		return err
	}
	f.updates = append(f.updates, recordedUpdate{id: pageID, properties: properties, cover: cover})
	return nil
}

func (f *fakeStore) Close() error { return nil }

var errNotFound = errors.New("not found")

// fakeSearcher returns canned candidates by query and records every query it sees.
type fakeSearcher struct {
	results map[string]book.Candidate
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) book.Candidate {
	f.queries = append(f.queries, query)
	return f.results[query]
}

// fakeScraper returns canned covers by id or URL.
type fakeScraper struct {
	covers map[string]string
	refs   []string
}

func (f *fakeScraper) Cover(ctx context.Context, idOrURL string) string {
	f.refs = append(f.refs, idOrURL)
	return f.covers[idOrURL]
}
