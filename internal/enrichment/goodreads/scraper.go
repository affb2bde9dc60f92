// Package goodreads scrapes cover images from public Goodreads book pages.
package goodreads

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://www.goodreads.com"
	defaultUserAgent = "Mozilla/5.0"
	defaultTimeout   = 30 * time.Second

	// book pages are large; the og tags live in <head>
	maxBodyBytes = 4 << 20
)

var ogImagePattern = regexp.MustCompile(`(?i)<meta\s+property=["']og:image["']\s+content=["']([^"']+)["']`)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Scraper fetches book pages and extracts their og:image cover.
type Scraper struct {
	baseURL    string
	userAgent  string
	httpClient HTTPDoer
}

// NewScraper creates a cover scraper. Redirects are followed by the default client.
func NewScraper(opts ...Option) *Scraper {
	s := &Scraper{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option is a functional option for configuring the Scraper.
type Option func(*Scraper)

// WithBaseURL sets the site root used for numeric book ids.
func WithBaseURL(base string) Option {
	return func(s *Scraper) {
		if base != "" {
			s.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scraper) {
		if timeout > 0 {
			s.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(s *Scraper) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// PageURL returns the book page for a numeric id, or idOrURL itself otherwise.
func (s *Scraper) PageURL(idOrURL string) string {
	idOrURL = strings.TrimSpace(idOrURL)
	if idOrURL == "" {
		return ""
	}
	for _, r := range idOrURL {
		if r < '0' || r > '9' {
			return idOrURL
		}
	}
	return fmt.Sprintf("%s/book/show/%s", s.baseURL, idOrURL)
}

// Cover returns the og:image URL of the book page, or "" on any failure.
func (s *Scraper) Cover(ctx context.Context, idOrURL string) string {
	pageURL := s.PageURL(idOrURL)
	if pageURL == "" {
		return ""
	}

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		slog.Debug("Cover scrape failed", "url", pageURL, "error", err)
		return ""
	}

	cover := ExtractOGImage(body)
	if cover == "" {
		slog.Debug("No og:image on book page", "url", pageURL)
	}
	return cover
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("goodreads: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("goodreads: read body: %w", err)
	}
	return string(body), nil
}

// ExtractOGImage returns the content of the first og:image meta tag in html.
func ExtractOGImage(html string) string {
	m := ogImagePattern.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
