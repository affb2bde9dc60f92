// Package syncer drives enrichment runs over a page store: it selects pages
// that are missing data, looks them up in the metadata providers and writes
// back the reconciled columns.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/bookfill/internal/config"
	"github.com/lepinkainen/bookfill/internal/datastore"
	"github.com/lepinkainen/bookfill/internal/enrichment/book"
	"github.com/oklog/ulid/v2"
)

// Mode selects what a run fills in.
type Mode int

const (
	// ModeEnrich fills bibliographic columns and the cover.
	ModeEnrich Mode = iota
	// ModeCovers only fills missing covers.
	ModeCovers
)

func (m Mode) String() string {
	switch m {
	case ModeEnrich:
		return "enrich"
	case ModeCovers:
		return "covers"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Options controls a sync run.
type Options struct {
	Mode          Mode
	Overwrite     bool
	DryRun        bool
	CoverPriority book.CoverPriority
	Columns       book.ColumnMap
	SyncedColumn  string
	PageSize      int
	// Now is used for the synced stamp. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig builds run options for mode from the loaded configuration.
func OptionsFromConfig(cfg *config.Config, mode Mode) Options {
	return Options{
		Mode:          mode,
		Overwrite:     cfg.Overwrite,
		DryRun:        cfg.DryRun,
		CoverPriority: cfg.CoverPriority,
		Columns:       cfg.Columns,
		SyncedColumn:  cfg.SyncedColumn,
		PageSize:      cfg.PageSize,
	}
}

// Summary counts the per-page outcomes of a run.
type Summary struct {
	RunID   string
	Seen    int
	Updated int
	Skipped int
	Warned  int
	Failed  int
}

// Syncer runs one sync over a store.
type Syncer struct {
	store    datastore.Store
	searcher book.Searcher
	scraper  book.CoverScraper
	opts     Options
}

// New creates a Syncer. Zero-valued options fall back to the defaults.
func New(store datastore.Store, searcher book.Searcher, scraper book.CoverScraper, opts Options) *Syncer {
	if len(opts.CoverPriority) == 0 {
		opts.CoverPriority = book.DefaultCoverPriority()
	}
	if opts.Columns == nil {
		opts.Columns = book.DefaultColumns()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = datastore.DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Syncer{
		store:    store,
		searcher: searcher,
		scraper:  scraper,
		opts:     opts,
	}
}

// Run processes every matching page once. Errors reading the schema or
// querying pages abort the run; failures on a single page do not.
func (s *Syncer) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: ulid.Make().String()}
	logger := slog.Default().With("run", summary.RunID, "mode", s.opts.Mode.String())

	schema, err := s.store.RetrieveSchema(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to retrieve schema: %w", err)
	}

	var filter *datastore.Filter
	switch s.opts.Mode {
	case ModeEnrich:
		filter = s.enrichFilter(schema)
	case ModeCovers:
		filter = s.coversFilter(schema)
	default:
		return summary, fmt.Errorf("unknown sync mode %v", s.opts.Mode)
	}

	logger.Info("Starting sync", "overwrite", s.opts.Overwrite, "dry_run", s.opts.DryRun, "cover_priority", s.opts.CoverPriority.String())

	records, err := datastore.QueryAll(ctx, s.store, filter, s.opts.PageSize)
	if err != nil {
		return summary, err
	}
	logger.Info("Found pages to process", "count", len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Seen++
		var out outcome
		switch s.opts.Mode {
		case ModeEnrich:
			out = s.enrichRecord(ctx, schema, rec)
		case ModeCovers:
			out = s.coverRecord(ctx, schema, rec)
		}
		out.log(logger.With("page", rec.ID))
		summary.add(out.kind)
	}

	logger.Info("Sync complete",
		"total", summary.Seen,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"warned", summary.Warned,
		"failed", summary.Failed)

	return summary, nil
}

func (sum *Summary) add(kind outcomeKind) {
	switch kind {
	case outcomeUpdated:
		sum.Updated++
	case outcomeSkipped:
		sum.Skipped++
	case outcomeNoData:
		sum.Warned++
	case outcomeFailed:
		sum.Failed++
	}
}

// enrichFilter selects pages with a source URL and at least one empty column
// the providers can fill.
func (s *Syncer) enrichFilter(schema datastore.Schema) *datastore.Filter {
	source := s.opts.Columns.Column(book.FieldSourceURL)

	var targets []*datastore.Filter
	seen := make(map[string]bool)
	for _, f := range book.EnrichTargets {
		col := s.opts.Columns.Column(f)
		if col == source || seen[col] {
			continue
		}
		seen[col] = true
		if t, ok := schema[col]; ok && t != datastore.Unsupported {
			targets = append(targets, datastore.EmptyFilter(col, t))
		}
	}

	var sourceFilter *datastore.Filter
	if t, ok := schema[source]; ok && t != datastore.Unsupported {
		sourceFilter = datastore.NotEmptyFilter(source, t)
	}

	return datastore.AllOf(sourceFilter, datastore.AnyOf(targets...))
}

// coversFilter selects pages where either cover column is empty.
func (s *Syncer) coversFilter(schema datastore.Schema) *datastore.Filter {
	var filters []*datastore.Filter
	for _, f := range []book.Field{book.FieldCoverURL, book.FieldAltCoverURL} {
		col := s.opts.Columns.Column(f)
		if t, ok := schema[col]; ok && t != datastore.Unsupported {
			filters = append(filters, datastore.EmptyFilter(col, t))
		}
	}
	return datastore.AnyOf(filters...)
}

func (s *Syncer) enrichRecord(ctx context.Context, schema datastore.Schema, rec datastore.Record) outcome {
	out := outcome{title: s.title(rec)}

	keys := book.SearchKeys(rec, s.opts.Columns)
	if len(keys) == 0 {
		return out.skipped("no ISBN, title or source URL to search by")
	}

	candidate, key := s.search(ctx, keys)
	if key != nil {
		out.strategy = string(key.Strategy)
	}

	cover, source := s.resolveCover(ctx, rec, func() string { return candidate.CoverURL })
	candidate.CoverURL = cover
	candidate.Set(book.FieldCoverURL, cover)
	candidate.Set(book.FieldAltCoverURL, cover)
	out.coverSource = source

	if candidate.IsEmpty() {
		return out.noData()
	}
	if out.title == "" {
		out.title = candidate.String(book.FieldTitle)
	}

	update := book.Reconcile(schema, candidate, rec, book.ReconcileOptions{
		Overwrite:    s.opts.Overwrite,
		Columns:      s.opts.Columns,
		SyncedColumn: s.opts.SyncedColumn,
		Now:          s.opts.Now,
	})
	if update.StampOnly(s.opts.SyncedColumn) {
		return out.skipped("already has data")
	}
	return s.apply(ctx, rec, update, out)
}

func (s *Syncer) coverRecord(ctx context.Context, schema datastore.Schema, rec datastore.Record) outcome {
	out := outcome{title: s.title(rec)}

	if !s.opts.Overwrite && s.hasCover(rec) {
		return out.skipped("already has a cover")
	}

	keys := book.SearchKeys(rec, s.opts.Columns)
	if len(keys) == 0 && book.SourceRef(rec, s.opts.Columns) == "" {
		return out.skipped("no ISBN, title or source URL to search by")
	}

	cover, source := s.resolveCover(ctx, rec, func() string {
		candidate, _ := s.search(ctx, keys)
		return candidate.CoverURL
	})
	if cover == "" {
		return out.noData()
	}
	out.coverSource = source

	candidate := book.Candidate{CoverURL: cover}
	candidate.Set(book.FieldCoverURL, cover)
	candidate.Set(book.FieldAltCoverURL, cover)

	update := book.Reconcile(schema, candidate, rec, book.ReconcileOptions{
		Overwrite: s.opts.Overwrite,
		Columns:   s.opts.Columns,
		Now:       s.opts.Now,
	})
	return s.apply(ctx, rec, update, out)
}

func (s *Syncer) apply(ctx context.Context, rec datastore.Record, update book.UpdateSet, out outcome) outcome {
	if update.IsEmpty() {
		return out.skipped("already has data")
	}
	out.columns = update.ColumnNames()
	out.coverSet = update.Cover != ""

	if s.opts.DryRun {
		out.dryRun = true
		return out.updated()
	}

	if err := s.store.Update(ctx, rec.ID, update.Properties, update.Cover); err != nil {
		return out.failed(err)
	}
	return out.updated()
}

// search tries keys in order and returns the first non-empty result with the key that produced it.
func (s *Syncer) search(ctx context.Context, keys []book.SearchKey) (book.Candidate, *book.SearchKey) {
	for i := range keys {
		candidate := s.searcher.Search(ctx, keys[i].Query)
		if !candidate.IsEmpty() {
			return candidate, &keys[i]
		}
		slog.Debug("No search result", "strategy", keys[i].Strategy, "query", keys[i].Query)
	}
	return book.Candidate{}, nil
}

// resolveCover consults the cover sources in priority order, stopping at the first hit.
func (s *Syncer) resolveCover(ctx context.Context, rec datastore.Record, searchCover func() string) (string, book.CoverSource) {
	var scraped, searched string
	for _, src := range s.opts.CoverPriority {
		switch src {
		case book.CoverSourceScrape:
			if ref := book.SourceRef(rec, s.opts.Columns); ref != "" {
				scraped = s.scraper.Cover(ctx, ref)
			}
		case book.CoverSourceSearch:
			searched = searchCover()
		}
		if url, from := book.ResolveCover(s.opts.CoverPriority, scraped, searched); url != "" {
			return url, from
		}
	}
	return "", ""
}

func (s *Syncer) hasCover(rec datastore.Record) bool {
	return rec.Cover != "" ||
		rec.Text(s.opts.Columns.Column(book.FieldCoverURL)) != "" ||
		rec.Text(s.opts.Columns.Column(book.FieldAltCoverURL)) != ""
}

func (s *Syncer) title(rec datastore.Record) string {
	return rec.Text(s.opts.Columns.Column(book.FieldTitle))
}
