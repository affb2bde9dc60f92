// Package googlebooks provides a search client for the Google Books volumes API.
package googlebooks

import (
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://www.googleapis.com/books/v1"
	defaultUserAgent = "Mozilla/5.0"
	defaultTimeout   = 20 * time.Second
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a Google Books API client.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient HTTPDoer
}

// NewClient creates a new Google Books client. The API key is optional.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithAPIKey sets the API key sent as the key query parameter.
func WithAPIKey(key string) Option {
	return func(client *Client) {
		client.apiKey = strings.TrimSpace(key)
	}
}

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		if ua != "" {
			client.userAgent = ua
		}
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout > 0 {
			client.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}
