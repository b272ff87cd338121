// Package datasource defines the data collaborator seams consumed by the
// admin core: fetching record pages, fetching single records, and resolving
// model identifiers. Persistence itself lives behind these interfaces.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound reports a FetchOne call that matched no record.
var ErrNotFound = errors.New("datasource: record not found")

// ModelNotFoundError reports an unknown model identifier.
type ModelNotFoundError struct {
	Name string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("datasource: model %q not found", e.Name)
}

// Filters narrows a fetch to records whose named fields equal the given
// values. Interpretation beyond equality is the data source's concern.
type Filters map[string]any

// Record is an opaque row of named fields. Identity is the data source's
// concern; the core only iterates field names and looks fields up.
type Record interface {
	Fields() []string
	Get(name string) (any, bool)
}

// MapRecord is the simplest Record: a field-name-to-value map. Fields are
// reported in sorted order for deterministic iteration.
type MapRecord map[string]any

func (r MapRecord) Fields() []string {
	out := make([]string, 0, len(r))
	for name := range r {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r MapRecord) Get(name string) (any, bool) {
	value, ok := r[name]
	return value, ok
}

// Model describes one admin-managed data model: its identifier, display
// label, id column, and declared column set in declaration order.
type Model struct {
	Name     string
	Label    string
	IDColumn string
	Columns  []string
}

// DataSource fetches records for a model. Implementations may block on I/O;
// timeout and cancellation policy belongs to them, propagated through ctx.
type DataSource interface {
	FetchPage(ctx context.Context, model Model, offset, limit int, filters Filters) ([]Record, error)
	FetchOne(ctx context.Context, model Model, filters Filters) (Record, error)
}

// ModelResolver maps a model identifier from a URL segment to its Model.
type ModelResolver interface {
	ResolveModel(name string) (Model, error)
}

// Models is a registry of model declarations satisfying ModelResolver.
type Models struct {
	mu     sync.RWMutex
	byName map[string]Model
}

// NewModels creates an empty model registry.
func NewModels() *Models {
	return &Models{byName: make(map[string]Model)}
}

// Register adds a model declaration. Duplicate names return an error. An
// empty IDColumn defaults to "id" so record lookups always have a key.
func (m *Models) Register(model Model) error {
	name := strings.TrimSpace(model.Name)
	if name == "" {
		return fmt.Errorf("datasource: model name is required")
	}
	if strings.TrimSpace(model.IDColumn) == "" {
		model.IDColumn = "id"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[name]; exists {
		return fmt.Errorf("datasource: model %q already registered", name)
	}
	model.Name = name
	m.byName[name] = model
	return nil
}

// ResolveModel implements ModelResolver.
func (m *Models) ResolveModel(name string) (Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	model, ok := m.byName[strings.TrimSpace(name)]
	if !ok {
		return Model{}, &ModelNotFoundError{Name: name}
	}
	return model, nil
}

// Names returns every registered model identifier in sorted order.
func (m *Models) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.byName))
	for name := range m.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
