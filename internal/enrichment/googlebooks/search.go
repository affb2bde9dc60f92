package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lepinkainen/bookfill/internal/enrichment/book"
)

// Search looks up query and converts the first volume into a candidate.
// Any failure yields an empty candidate.
func (c *Client) Search(ctx context.Context, query string) book.Candidate {
	query = strings.TrimSpace(query)
	if query == "" {
		return book.Candidate{}
	}

	resp, err := c.searchVolumes(ctx, query)
	if err != nil {
		slog.Debug("Google Books search failed", "query", query, "error", err)
		return book.Candidate{}
	}
	if len(resp.Items) == 0 || resp.Items[0].VolumeInfo == nil {
		slog.Debug("Google Books search returned no volumes", "query", query)
		return book.Candidate{}
	}

	return toCandidate(resp.Items[0].VolumeInfo)
}

func (c *Client) searchVolumes(ctx context.Context, query string) (*volumesResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("googlebooks: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("googlebooks: decode response: %w", err)
	}
	return &result, nil
}

func toCandidate(info *volumeInfo) book.Candidate {
	var c book.Candidate

	c.Set(book.FieldTitle, strings.TrimSpace(str(info.Title)))
	c.Set(book.FieldAuthor, strings.Join(info.Authors, ", "))
	c.Set(book.FieldPublisher, strings.TrimSpace(str(info.Publisher)))
	c.Set(book.FieldYearPublished, publishedYear(str(info.PublishedDate)))
	c.Set(book.FieldDescription, strings.TrimSpace(str(info.Description)))
	c.Set(book.FieldLanguage, strings.ToUpper(str(info.Language)))
	if info.PageCount != nil {
		c.Set(book.FieldPageCount, *info.PageCount)
	}
	if info.AverageRating != nil {
		c.Set(book.FieldAverageRating, *info.AverageRating)
	}

	for _, id := range info.IndustryIdentifiers {
		switch str(id.Type) {
		case "ISBN_13":
			c.Set(book.FieldISBN13, str(id.Identifier))
		case "ISBN_10":
			c.Set(book.FieldISBN, str(id.Identifier))
		}
	}

	if links := info.ImageLinks; links != nil {
		c.CoverURL = str(links.Thumbnail)
		if c.CoverURL == "" {
			c.CoverURL = str(links.SmallThumbnail)
		}
	}

	return c
}

// publishedYear returns the leading four digit year of a date like "1965-08-01".
func publishedYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	year := date[:4]
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}
