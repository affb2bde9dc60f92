package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lepinkainen/bookfill/internal/datastore/migrations"
	bferrors "github.com/lepinkainen/bookfill/internal/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface on a local SQLite database.
// Columns live in page_columns, page values are stored as a JSON object per page.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// storedValue is the JSON representation of an Envelope inside the pages table.
type storedValue struct {
	Type   string   `json:"type"`
	Text   string   `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
	URL    string   `json:"url,omitempty"`
	Choice string   `json:"choice,omitempty"`
	Date   string   `json:"date,omitempty"`
}

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
	}
}

// Connect opens the SQLite database and applies the embedded migrations
func (s *SQLiteStore) Connect() error {
	if dir := filepath.Dir(s.dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return errors.Join(fmt.Errorf("failed to set busy timeout: %w", err), db.Close())
	}

	if err := runMigrations(db); err != nil {
		return errors.Join(fmt.Errorf("failed to run migrations: %w", err), db.Close())
	}

	s.db = db
	return nil
}

func runMigrations(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// DefineColumn adds or retypes a column
func (s *SQLiteStore) DefineColumn(ctx context.Context, name string, t ColumnType) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO page_columns (name, type) VALUES (?, ?)`,
		name, t.String())
	if err != nil {
		return fmt.Errorf("failed to define column %s: %w", name, err)
	}
	return nil
}

// PutPage inserts or replaces a whole page
func (s *SQLiteStore) PutPage(ctx context.Context, rec Record) error {
	data, err := encodeStoredProperties(rec.Properties)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pages (id, cover, properties, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, rec.ID, rec.Cover, data)
	if err != nil {
		return fmt.Errorf("failed to store page %s: %w", rec.ID, err)
	}
	return nil
}

// RetrieveSchema returns the defined columns
func (s *SQLiteStore) RetrieveSchema(ctx context.Context) (Schema, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type FROM page_columns`)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	schema := make(Schema)
	for rows.Next() {
		var name, typeName string
		if err := rows.Scan(&name, &typeName); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		schema[name] = ParseColumnType(typeName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	return schema, nil
}

// Query returns pages ordered by id. The cursor is the id of the last page of the previous result.
func (s *SQLiteStore) Query(ctx context.Context, filter *Filter, cursor string, pageSize int) (*QueryResult, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cover, properties FROM pages WHERE id > ? ORDER BY id`, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := &QueryResult{}
	for rows.Next() {
		rec, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		if !filter.Matches(*rec) {
			continue
		}
		if len(result.Results) == pageSize {
			result.HasMore = true
			result.NextCursor = result.Results[pageSize-1].ID
			break
		}
		result.Results = append(result.Results, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pages: %w", err)
	}

	return result, nil
}

// Get retrieves a single page
func (s *SQLiteStore) Get(ctx context.Context, pageID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, cover, properties FROM pages WHERE id = ?`, pageID)
	rec, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %s: %w", pageID, bferrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update merges properties into the page and sets the cover when non-empty.
// Properties naming undefined columns are rejected, mirroring the remote API.
func (s *SQLiteStore) Update(ctx context.Context, pageID string, properties map[string]Envelope, cover string) error {
	schema, err := s.RetrieveSchema(ctx)
	if err != nil {
		return err
	}
	for name := range properties {
		if !schema.Has(name) {
			return fmt.Errorf("property %q does not exist", name)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback if we don't commit - ignore errors as they're expected if transaction was committed
		_ = tx.Rollback()
	}()

	rec, err := scanPage(tx.QueryRowContext(ctx, `SELECT id, cover, properties FROM pages WHERE id = ?`, pageID))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("page %s: %w", pageID, bferrors.ErrNotFound)
	}
	if err != nil {
		return err
	}

	for name, env := range properties {
		rec.Properties[name] = env
	}
	if cover != "" {
		rec.Cover = cover
	}

	data, err := encodeStoredProperties(rec.Properties)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE pages SET cover = ?, properties = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		rec.Cover, data, pageID); err != nil {
		return fmt.Errorf("failed to update page %s: %w", pageID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*Record, error) {
	var id, cover, data string
	if err := row.Scan(&id, &cover, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan page: %w", err)
	}

	props, err := decodeStoredProperties(data)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", id, err)
	}

	return &Record{ID: id, Cover: cover, Properties: props}, nil
}

func encodeStoredProperties(props map[string]Envelope) (string, error) {
	stored := make(map[string]storedValue, len(props))
	for name, env := range props {
		stored[name] = storedValue{
			Type:   env.Type.String(),
			Text:   env.Text,
			Number: env.Number,
			URL:    env.URL,
			Choice: env.Choice,
			Date:   env.Date,
		}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("failed to marshal properties: %w", err)
	}
	return string(data), nil
}

func decodeStoredProperties(data string) (map[string]Envelope, error) {
	var stored map[string]storedValue
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
	}

	props := make(map[string]Envelope, len(stored))
	for name, v := range stored {
		props[name] = Envelope{
			Type:   ParseColumnType(v.Type),
			Text:   v.Text,
			Number: v.Number,
			URL:    v.URL,
			Choice: v.Choice,
			Date:   v.Date,
		}
	}
	return props, nil
}
