package book

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/bookfill/internal/datastore"
)

// ReconcileOptions controls how candidate metadata is merged into a record.
type ReconcileOptions struct {
	// Overwrite allows replacing non-empty columns and an existing display cover.
	Overwrite bool
	// Columns maps logical fields to column names. Nil uses DefaultColumns.
	Columns ColumnMap
	// SyncedColumn is stamped with the current time when present in the schema. Empty disables stamping.
	SyncedColumn string
	// Now defaults to time.Now.
	Now func() time.Time
}

// UpdateSet is the partial update computed for one record.
type UpdateSet struct {
	Properties map[string]datastore.Envelope
	// Cover is the display cover to set, "" for no cover change.
	Cover string
}

// IsEmpty reports whether applying the update would change nothing.
func (u UpdateSet) IsEmpty() bool {
	return len(u.Properties) == 0 && u.Cover == ""
}

// StampOnly reports whether the only change is the sync stamp in syncedColumn.
func (u UpdateSet) StampOnly(syncedColumn string) bool {
	if u.Cover != "" || len(u.Properties) != 1 {
		return false
	}
	_, ok := u.Properties[syncedColumn]
	return ok
}

// ColumnNames returns the updated column names in sorted order.
func (u UpdateSet) ColumnNames() []string {
	names := make([]string, 0, len(u.Properties))
	for name := range u.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reconcile computes the columns of current that candidate may fill.
//
// A column is written only when it exists in the schema and is empty, or when
// Overwrite is set. Values that cannot be encoded into the column's type are
// dropped. An empty candidate always yields an empty UpdateSet.
func Reconcile(schema datastore.Schema, candidate Candidate, current datastore.Record, opts ReconcileOptions) UpdateSet {
	update := UpdateSet{Properties: make(map[string]datastore.Envelope)}
	if candidate.IsEmpty() {
		return update
	}

	columns := opts.Columns
	if columns == nil {
		columns = DefaultColumns()
	}

	for _, f := range FieldOrder {
		col := columns.Column(f)
		colType, ok := schema[col]
		if !ok {
			continue
		}
		if _, done := update.Properties[col]; done {
			continue
		}
		if !opts.Overwrite && !current.Value(col).IsEmpty() {
			continue
		}
		if env, ok := Encode(colType, candidate.Get(f)); ok {
			update.Properties[col] = env
		}
	}

	if opts.SyncedColumn != "" {
		if colType, ok := schema[opts.SyncedColumn]; ok {
			now := time.Now
			if opts.Now != nil {
				now = opts.Now
			}
			if env, ok := Encode(colType, now().UTC().Format(time.RFC3339)); ok {
				update.Properties[opts.SyncedColumn] = env
			}
		}
	}

	if candidate.CoverURL != "" && (current.Cover == "" || opts.Overwrite) {
		update.Cover = candidate.CoverURL
	}

	return update
}

// Encode wraps v into an envelope of the given column type.
// ok is false for nil or empty values, unparsable numbers and unsupported column types.
func Encode(t datastore.ColumnType, v any) (datastore.Envelope, bool) {
	if isBlank(v) {
		return datastore.Envelope{}, false
	}

	switch t {
	case datastore.Title, datastore.RichText:
		return datastore.TextValue(t, fmt.Sprint(v)), true
	case datastore.Number:
		f, ok := toNumber(v)
		if !ok {
			return datastore.Envelope{}, false
		}
		return datastore.NumberValue(f), true
	case datastore.URL:
		return datastore.URLValue(fmt.Sprint(v)), true
	case datastore.Select:
		// select option names may not contain commas
		return datastore.ChoiceValue(strings.ReplaceAll(fmt.Sprint(v), ",", " ")), true
	case datastore.Date:
		return datastore.DateValue(fmt.Sprint(v)), true
	case datastore.Unsupported:
		return datastore.Envelope{}, false
	}
	return datastore.Envelope{}, false
}

func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
