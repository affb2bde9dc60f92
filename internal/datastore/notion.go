package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	bferrors "github.com/lepinkainen/bookfill/internal/errors"
)

const (
	// DefaultNotionBaseURL is the public Notion REST endpoint.
	DefaultNotionBaseURL = "https://api.notion.com/v1"
	notionVersion        = "2022-06-28"
)

// NotionClient implements the Store interface for a Notion database
type NotionClient struct {
	baseURL    string
	apiToken   string
	databaseID string
	client     *http.Client
}

// Compile-time check that NotionClient implements Store.
var _ Store = (*NotionClient)(nil)

// NewNotionClient creates a new NotionClient for one database
func NewNotionClient(baseURL, apiToken, databaseID string, timeout time.Duration) *NotionClient {
	if baseURL == "" {
		baseURL = DefaultNotionBaseURL
	}
	return &NotionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		databaseID: databaseID,
		client:     &http.Client{Timeout: timeout},
	}
}

// RetrieveSchema fetches the database's column names and types
func (c *NotionClient) RetrieveSchema(ctx context.Context) (Schema, error) {
	var db notionDatabase
	if err := c.do(ctx, http.MethodGet, "/databases/"+url.PathEscape(c.databaseID), nil, &db); err != nil {
		return nil, fmt.Errorf("failed to retrieve database %s: %w", c.databaseID, err)
	}

	schema := make(Schema, len(db.Properties))
	for name, col := range db.Properties {
		schema[name] = ParseColumnType(col.Type)
	}
	return schema, nil
}

// Query runs one database query request
func (c *NotionClient) Query(ctx context.Context, filter *Filter, cursor string, pageSize int) (*QueryResult, error) {
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}

	req := notionQueryRequest{
		Filter:      filter,
		StartCursor: cursor,
		PageSize:    pageSize,
	}

	var resp notionQueryResponse
	if err := c.do(ctx, http.MethodPost, "/databases/"+url.PathEscape(c.databaseID)+"/query", req, &resp); err != nil {
		return nil, err
	}

	result := &QueryResult{
		Results: make([]Record, 0, len(resp.Results)),
		HasMore: resp.HasMore,
	}
	if resp.NextCursor != nil {
		result.NextCursor = *resp.NextCursor
	}
	for _, page := range resp.Results {
		result.Results = append(result.Results, page.toRecord())
	}

	return result, nil
}

// Get retrieves a single page
func (c *NotionClient) Get(ctx context.Context, pageID string) (*Record, error) {
	var page notionPage
	if err := c.do(ctx, http.MethodGet, "/pages/"+url.PathEscape(pageID), nil, &page); err != nil {
		return nil, fmt.Errorf("failed to retrieve page %s: %w", pageID, err)
	}
	rec := page.toRecord()
	return &rec, nil
}

// Update patches the page's properties and, when cover is set, its external cover
func (c *NotionClient) Update(ctx context.Context, pageID string, properties map[string]Envelope, cover string) error {
	props := make(map[string]any, len(properties))
	for name, env := range properties {
		encoded, ok := encodeProperty(env)
		if !ok {
			slog.Debug("Skipping property with unsupported type", "page", pageID, "property", name)
			continue
		}
		props[name] = encoded
	}

	payload := map[string]any{"properties": props}
	if cover != "" {
		payload["cover"] = map[string]any{
			"type":     "external",
			"external": map[string]string{"url": cover},
		}
	}

	if err := c.do(ctx, http.MethodPatch, "/pages/"+url.PathEscape(pageID), payload, nil); err != nil {
		return fmt.Errorf("failed to update page %s: %w", pageID, err)
	}
	return nil
}

// Close is a no-op for the HTTP client
func (c *NotionClient) Close() error {
	return nil
}

func (c *NotionClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Notion-Version", notionVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp notionErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return bferrors.NewAPIError(resp.StatusCode, "", "")
		}
		return bferrors.NewAPIError(resp.StatusCode, errResp.Code, errResp.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
