// Package csvutil reads CSV exports whose columns are addressed by header name.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// Required lists header names that must be present.
	Required []string

	// SkipInvalid controls whether to skip invalid records or return an error.
	SkipInvalid bool
}

// Row is one CSV record whose fields are looked up by header name.
type Row struct {
	Line   int
	index  map[string]int
	values []string
}

// Get returns the trimmed value of the named column, "" when the column is missing.
func (r Row) Get(name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// Has reports whether the header contains the named column.
func (r Row) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// ProcessCSV opens filename and parses every record with parser.
func ProcessCSV[T any](filename string, parser func(Row) (T, error), opts ProcessorOptions) ([]T, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("CSV file is empty or cannot be read")
	}

	return Process(csvFile, parser, opts)
}

// Process parses CSV from r. The first record is the header.
func Process[T any](r io.Reader, parser func(Row) (T, error), opts ProcessorOptions) ([]T, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Goodreads writes ISBNs as ="0441013597" in unquoted fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		// Excel exports prefix the first header with a byte order mark
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, name := range opts.Required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var items []T
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if opts.SkipInvalid && errors.As(err, &parseErr) {
				slog.Warn("Error reading record", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("invalid record on line %d: %w", line, err)
		}

		item, err := parser(Row{Line: line, index: index, values: record})
		if err != nil {
			var parseErr *csv.ParseError
			if opts.SkipInvalid && errors.As(err, &parseErr) {
				slog.Warn("Skipping invalid record", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("invalid record on line %d: %w", line, err)
		}

		items = append(items, item)
	}

	return items, nil
}
