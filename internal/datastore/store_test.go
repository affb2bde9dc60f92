package datastore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedStore struct {
	Store
	pages   [][]Record
	cursors []string
	err     error
}

func (s *pagedStore) Query(_ context.Context, _ *Filter, cursor string, _ int) (*QueryResult, error) {
	s.cursors = append(s.cursors, cursor)
	if s.err != nil {
		return nil, s.err
	}
	idx := len(s.cursors) - 1
	res := &QueryResult{Results: s.pages[idx]}
	if idx < len(s.pages)-1 {
		res.HasMore = true
		res.NextCursor = "c" + string(rune('1'+idx))
	}
	return res, nil
}

func TestQueryAll_FollowsCursors(t *testing.T) {
	store := &pagedStore{pages: [][]Record{
		{{ID: "1"}, {ID: "2"}},
		{{ID: "3"}},
		{{ID: "4"}},
	}}

	records, err := QueryAll(context.Background(), store, nil, 0)
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, []string{"", "c1", "c2"}, store.cursors)
}

func TestQueryAll_PropagatesError(t *testing.T) {
	store := &pagedStore{err: errors.New("boom")}

	_, err := QueryAll(context.Background(), store, nil, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRecordAccessorsOnNilProperties(t *testing.T) {
	var rec Record
	assert.True(t, rec.Value("Title").IsEmpty())
	assert.Equal(t, "", rec.Text("Title"))
}
