// Package config loads bookfill settings from defaults, config.yaml and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lepinkainen/bookfill/internal/datastore"
	"github.com/lepinkainen/bookfill/internal/enrichment/book"
	bferrors "github.com/lepinkainen/bookfill/internal/errors"
	"github.com/spf13/viper"
)

// Supported page store backends.
const (
	BackendNotion = "notion"
	BackendSQLite = "sqlite"
)

// Config is the resolved configuration of one run.
type Config struct {
	Backend string

	NotionToken      string
	NotionDatabaseID string
	NotionBaseURL    string

	SQLitePath string

	GoogleBooksAPIKey  string
	GoogleBooksBaseURL string
	GoodreadsBaseURL   string

	UserAgent     string
	HTTPTimeout   time.Duration
	ScrapeTimeout time.Duration

	Overwrite     bool
	DryRun        bool
	CoverPriority book.CoverPriority
	Columns       book.ColumnMap
	SyncedColumn  string
	PageSize      int
}

// envBindings maps config keys to the environment variables used by earlier versions of the tool.
var envBindings = map[string]string{
	"notion.token":        "NOTION_TOKEN",
	"notion.database_id":  "NOTION_DATABASE_ID",
	"user_agent":          "USER_AGENT",
	"overwrite":           "OVERWRITE",
	"cover_priority":      "COVER_PRIORITY",
	"googlebooks.api_key": "GOOGLE_BOOKS_API_KEY",
	"backend":             "BOOKFILL_BACKEND",
	"sqlite.path":         "BOOKFILL_SQLITE_PATH",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendNotion)
	v.SetDefault("notion.base_url", datastore.DefaultNotionBaseURL)
	v.SetDefault("sqlite.path", "./bookfill.db")
	v.SetDefault("user_agent", "Mozilla/5.0")
	v.SetDefault("overwrite", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("cover_priority", []string{string(book.CoverSourceScrape), string(book.CoverSourceSearch)})
	v.SetDefault("googlebooks.base_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("goodreads.base_url", "https://www.goodreads.com")
	v.SetDefault("http.timeout", "20s")
	v.SetDefault("scrape.timeout", "30s")
	v.SetDefault("page_size", datastore.DefaultPageSize)
	v.SetDefault("synced_column", book.DefaultSyncedColumn)
}

// BindEnv enables environment lookups on v, including the legacy variable names.
func BindEnv(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// Load resolves and validates the configuration held by v.
// Missing store credentials are reported as *errors.ConfigError.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	cfg := &Config{
		Backend:            strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
		NotionToken:        strings.TrimSpace(v.GetString("notion.token")),
		NotionDatabaseID:   strings.TrimSpace(v.GetString("notion.database_id")),
		NotionBaseURL:      v.GetString("notion.base_url"),
		SQLitePath:         v.GetString("sqlite.path"),
		GoogleBooksAPIKey:  v.GetString("googlebooks.api_key"),
		GoogleBooksBaseURL: v.GetString("googlebooks.base_url"),
		GoodreadsBaseURL:   v.GetString("goodreads.base_url"),
		UserAgent:          v.GetString("user_agent"),
		HTTPTimeout:        v.GetDuration("http.timeout"),
		ScrapeTimeout:      v.GetDuration("scrape.timeout"),
		Overwrite:          v.GetBool("overwrite"),
		DryRun:             v.GetBool("dry_run"),
		SyncedColumn:       strings.TrimSpace(v.GetString("synced_column")),
		PageSize:           v.GetInt("page_size"),
	}

	switch cfg.Backend {
	case BackendNotion:
		if cfg.NotionToken == "" {
			return nil, bferrors.NewConfigError("notion.token", "NOTION_TOKEN is not set")
		}
		if cfg.NotionDatabaseID == "" {
			return nil, bferrors.NewConfigError("notion.database_id", "NOTION_DATABASE_ID is not set")
		}
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, bferrors.NewConfigError("sqlite.path", "path is empty")
		}
	default:
		return nil, bferrors.NewConfigError("backend", fmt.Sprintf("unknown backend %q", cfg.Backend))
	}

	priority, err := book.ParseCoverPriority(stringList(v.Get("cover_priority")))
	if err != nil {
		return nil, bferrors.NewConfigError("cover_priority", err.Error())
	}
	cfg.CoverPriority = priority

	columns, err := book.WithOverrides(v.GetStringMapString("column_names"))
	if err != nil {
		return nil, bferrors.NewConfigError("column_names", err.Error())
	}
	cfg.Columns = columns

	if cfg.PageSize <= 0 || cfg.PageSize > datastore.DefaultPageSize {
		cfg.PageSize = datastore.DefaultPageSize
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, bferrors.NewConfigError("http.timeout", "must be positive")
	}
	if cfg.ScrapeTimeout <= 0 {
		return nil, bferrors.NewConfigError("scrape.timeout", "must be positive")
	}

	return cfg, nil
}

// stringList accepts both YAML lists and comma separated strings such as COVER_PRIORITY=search,scrape.
func stringList(raw any) []string {
	switch val := raw.(type) {
	case nil:
		return nil
	case string:
		return strings.Split(val, ",")
	case []string:
		var out []string
		for _, s := range val {
			out = append(out, strings.Split(s, ",")...)
		}
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return []string{fmt.Sprint(raw)}
}
