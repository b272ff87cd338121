// Package memory provides an in-memory DataSource used by the examples, the
// CLI, and package tests. Rows are matched against filters by string-form
// equality, which is what URL-derived filters give us.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-admingen/pkg/datasource"
)

// Store holds rows per model name.
type Store struct {
	mu   sync.RWMutex
	rows map[string][]datasource.MapRecord
}

// New creates an empty store.
func New() *Store {
	return &Store{rows: make(map[string][]datasource.MapRecord)}
}

// Insert appends rows for the named model.
func (s *Store) Insert(model string, rows ...datasource.MapRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[model] = append(s.rows[model], rows...)
}

// Len returns the number of rows held for the named model.
func (s *Store) Len(model string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[model])
}

// FetchPage implements datasource.DataSource.
func (s *Store) FetchPage(ctx context.Context, model datasource.Model, offset, limit int, filters datasource.Filters) ([]datasource.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []datasource.Record
	skipped := 0
	for _, row := range s.rows[model.Name] {
		if !matches(row, filters) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// FetchOne implements datasource.DataSource, returning ErrNotFound when no
// row matches.
func (s *Store) FetchOne(ctx context.Context, model datasource.Model, filters datasource.Filters) (datasource.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows[model.Name] {
		if matches(row, filters) {
			return row, nil
		}
	}
	return nil, datasource.ErrNotFound
}

func matches(row datasource.MapRecord, filters datasource.Filters) bool {
	for name, want := range filters {
		have, ok := row[name]
		if !ok {
			return false
		}
		if fmt.Sprint(have) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
