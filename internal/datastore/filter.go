package datastore

import (
	"encoding/json"
	"fmt"
)

// Condition is the predicate applied to a single column.
type Condition int

const (
	IsEmpty Condition = iota
	IsNotEmpty
)

func (c Condition) key() string {
	if c == IsNotEmpty {
		return "is_not_empty"
	}
	return "is_empty"
}

// Filter is a query predicate: either a compound (And/Or) or a single column condition.
// A nil *Filter matches every page.
type Filter struct {
	And []*Filter
	Or  []*Filter

	Property  string
	Type      ColumnType
	Condition Condition
}

// EmptyFilter matches pages whose column is empty.
func EmptyFilter(property string, t ColumnType) *Filter {
	return &Filter{Property: property, Type: t, Condition: IsEmpty}
}

// NotEmptyFilter matches pages whose column has a value.
func NotEmptyFilter(property string, t ColumnType) *Filter {
	return &Filter{Property: property, Type: t, Condition: IsNotEmpty}
}

// AllOf combines filters with AND. Nil filters are dropped; no filters yields nil.
func AllOf(filters ...*Filter) *Filter {
	kept := compact(filters)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &Filter{And: kept}
}

// AnyOf combines filters with OR. Nil filters are dropped; no filters yields nil.
func AnyOf(filters ...*Filter) *Filter {
	kept := compact(filters)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &Filter{Or: kept}
}

func compact(filters []*Filter) []*Filter {
	kept := make([]*Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			kept = append(kept, f)
		}
	}
	return kept
}

// Matches evaluates the filter against a record. Missing columns count as empty.
func (f *Filter) Matches(r Record) bool {
	if f == nil {
		return true
	}

	if len(f.And) > 0 {
		for _, sub := range f.And {
			if !sub.Matches(r) {
				return false
			}
		}
		return true
	}

	if len(f.Or) > 0 {
		for _, sub := range f.Or {
			if sub.Matches(r) {
				return true
			}
		}
		return false
	}

	empty := r.Value(f.Property).IsEmpty()
	if f.Condition == IsNotEmpty {
		return !empty
	}
	return empty
}

// MarshalJSON encodes the filter in the Notion database query format.
func (f *Filter) MarshalJSON() ([]byte, error) {
	if len(f.And) > 0 {
		return json.Marshal(map[string]any{"and": f.And})
	}
	if len(f.Or) > 0 {
		return json.Marshal(map[string]any{"or": f.Or})
	}

	if f.Property == "" {
		return nil, fmt.Errorf("filter has no property")
	}
	if f.Type == Unsupported {
		return nil, fmt.Errorf("cannot filter on column %q of unsupported type", f.Property)
	}

	return json.Marshal(map[string]any{
		"property": f.Property,
		f.Type.String(): map[string]bool{
			f.Condition.key(): true,
		},
	})
}
