package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/bookfill/internal/config"
	"github.com/lepinkainen/bookfill/internal/datastore"
	"github.com/lepinkainen/bookfill/internal/enrichment/goodreads"
	"github.com/lepinkainen/bookfill/internal/enrichment/googlebooks"
	"github.com/lepinkainen/bookfill/internal/importer"
	"github.com/lepinkainen/bookfill/internal/syncer"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	stdout          io.Writer = os.Stdout
	openStore                 = newStore
	importGoodreads           = importer.ImportGoodreads
)

// CLI represents the complete command structure for the bookfill application
type CLI struct {
	// Global flags
	Config        string   `help:"Path to config file (defaults to ./config.yaml when present)" type:"path"`
	Overwrite     bool     `help:"Replace existing column values and covers"`
	DryRun        bool     `help:"Log the updates that would be made without writing them"`
	CoverPriority []string `help:"Cover sources in order of preference (scrape, search)"`
	Backend       string   `help:"Page store backend (notion or sqlite)"`
	SQLitePath    string   `name:"sqlite-path" help:"Path to the SQLite page store"`
	Debug         bool     `help:"Enable debug logging"`

	Covers CoversCmd `cmd:"" help:"Fill missing cover images"`
	Enrich EnrichCmd `cmd:"" help:"Fill missing book metadata and covers"`
	Schema SchemaCmd `cmd:"" help:"Print the page store columns as YAML"`
	Import ImportCmd `cmd:"" help:"Load a Goodreads library export into the SQLite page store"`
}

// CoversCmd represents the covers command
type CoversCmd struct{}

// EnrichCmd represents the enrich command
type EnrichCmd struct{}

// SchemaCmd represents the schema command
type SchemaCmd struct{}

// ImportCmd represents the import command
type ImportCmd struct {
	Input string `short:"f" help:"Path to Goodreads library export CSV file" type:"existingfile" required:""`
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("bookfill"),
		kong.Description("Fill in missing book metadata and covers from Google Books and Goodreads."),
		kong.UsageOnError(),
	)

	initLogging(cli.Debug)

	if err := ctx.Run(&cli); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func (c *CoversCmd) Run(cli *CLI) error {
	return runSync(cli, syncer.ModeCovers)
}

func (e *EnrichCmd) Run(cli *CLI) error {
	return runSync(cli, syncer.ModeEnrich)
}

func (s *SchemaCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	schema, err := store.RetrieveSchema(context.Background())
	if err != nil {
		return fmt.Errorf("failed to retrieve schema: %w", err)
	}

	return writeSchema(stdout, schema)
}

func (i *ImportCmd) Run(cli *CLI) error {
	// imports always target the local store
	cli.Backend = config.BackendSQLite

	cfg, err := cli.loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	store := datastore.NewSQLiteStore(cfg.SQLitePath)
	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to open page store: %w", err)
	}
	defer func() { _ = store.Close() }()

	_, err = importGoodreads(context.Background(), store, i.Input)
	return err
}

func runSync(cli *CLI, mode syncer.Mode) error {
	cfg, err := cli.loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	searcher := googlebooks.NewClient(
		googlebooks.WithBaseURL(cfg.GoogleBooksBaseURL),
		googlebooks.WithAPIKey(cfg.GoogleBooksAPIKey),
		googlebooks.WithUserAgent(cfg.UserAgent),
		googlebooks.WithTimeout(cfg.HTTPTimeout),
	)
	scraper := goodreads.NewScraper(
		goodreads.WithBaseURL(cfg.GoodreadsBaseURL),
		goodreads.WithUserAgent(cfg.UserAgent),
		goodreads.WithTimeout(cfg.ScrapeTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err = syncer.New(store, searcher, scraper, syncer.OptionsFromConfig(cfg, mode)).Run(ctx)
	return err
}

// loadConfig reads .env, config file and environment into v, applies the
// command line flags on top and resolves the result.
func (c *CLI) loadConfig(v *viper.Viper) (*config.Config, error) {
	if err := initConfig(v, c.Config); err != nil {
		return nil, err
	}
	c.applyFlags(v)
	return config.Load(v)
}

func initConfig(v *viper.Viper, configFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	config.SetDefaults(v)
	if err := config.BindEnv(v); err != nil {
		return err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("No config file found, using defaults and environment")
	}
	return nil
}

func (c *CLI) applyFlags(v *viper.Viper) {
	if c.Overwrite {
		v.Set("overwrite", true)
	}
	if c.DryRun {
		v.Set("dry_run", true)
	}
	if len(c.CoverPriority) > 0 {
		v.Set("cover_priority", c.CoverPriority)
	}
	if c.Backend != "" {
		v.Set("backend", c.Backend)
	}
	if c.SQLitePath != "" {
		v.Set("sqlite.path", c.SQLitePath)
	}
}

func newStore(cfg *config.Config) (datastore.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		store := datastore.NewSQLiteStore(cfg.SQLitePath)
		if err := store.Connect(); err != nil {
			return nil, fmt.Errorf("failed to open page store: %w", err)
		}
		return store, nil
	case config.BackendNotion:
		return datastore.NewNotionClient(cfg.NotionBaseURL, cfg.NotionToken, cfg.NotionDatabaseID, cfg.HTTPTimeout), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

type schemaColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

func writeSchema(w io.Writer, schema datastore.Schema) error {
	columns := make([]schemaColumn, 0, len(schema))
	for name, typ := range schema {
		columns = append(columns, schemaColumn{Name: name, Type: typ.String()})
	}
	sort.Slice(columns, func(i, j int) bool { return columns[i].Name < columns[j].Name })

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]schemaColumn{"columns": columns}); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
