package datastore

import (
	"context"
	"fmt"
)

// DefaultPageSize is the largest page size the Notion query API accepts.
const DefaultPageSize = 100

// Record is one page of the store.
type Record struct {
	ID         string
	Properties map[string]Envelope
	// Cover is the page's display cover URL, independent of any column. Empty when unset.
	Cover string
}

// Value returns the envelope for a column, or a zero (empty) envelope when the column is missing.
func (r Record) Value(column string) Envelope {
	if r.Properties == nil {
		return Envelope{}
	}
	return r.Properties[column]
}

// Text returns the plain text value of a column, "" when missing.
func (r Record) Text(column string) string {
	return r.Value(column).String()
}

// QueryResult is one page of query results.
type QueryResult struct {
	Results    []Record
	HasMore    bool
	NextCursor string
}

// Store defines the interface for a structured page store
type Store interface {
	// RetrieveSchema returns the column set of the configured database
	RetrieveSchema(ctx context.Context) (Schema, error)

	// Query returns pages matching filter, starting at cursor. A nil filter matches every page.
	Query(ctx context.Context, filter *Filter, cursor string, pageSize int) (*QueryResult, error)

	// Get retrieves a single page
	Get(ctx context.Context, pageID string) (*Record, error)

	// Update applies a partial update to a page. An empty cover leaves the display cover untouched.
	Update(ctx context.Context, pageID string, properties map[string]Envelope, cover string) error

	// Close releases the store's resources
	Close() error
}

// QueryAll drains every result page of a query, following continuation cursors.
func QueryAll(ctx context.Context, store Store, filter *Filter, pageSize int) ([]Record, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var (
		records []Record
		cursor  string
	)
	for {
		resp, err := store.Query(ctx, filter, cursor, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to query pages: %w", err)
		}
		records = append(records, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	return records, nil
}
