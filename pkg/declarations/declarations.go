// Package declarations loads admin site declarations from JSON/YAML files
// and applies them to a site. It covers the declarative subset of the site
// API: models, table and cell styles, page styles, column mappings, and
// routes. Handlers, transforms, and renderers stay in Go code.
package declarations

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-admingen/pkg/datasource"
	"github.com/goliatone/go-admingen/pkg/site"
	"github.com/goliatone/go-admingen/pkg/tags"
)

// Document is one parsed declaration file.
type Document struct {
	Source string `json:"-" yaml:"-"`

	Models       map[string]ModelConfig      `json:"models,omitempty" yaml:"models,omitempty"`
	PageStyles   map[string]StyleConfig      `json:"pageStyles,omitempty" yaml:"pageStyles,omitempty"`
	TableStyles  map[string]TableStyleConfig `json:"tableStyles,omitempty" yaml:"tableStyles,omitempty"`
	CellStyles   map[string]CellStyleConfig  `json:"cellStyles,omitempty" yaml:"cellStyles,omitempty"`
	Views        []ViewConfig                `json:"views,omitempty" yaml:"views,omitempty"`
	DefaultViews bool                        `json:"defaultViews,omitempty" yaml:"defaultViews,omitempty"`
}

// ModelConfig declares an admin-managed model.
type ModelConfig struct {
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	IDColumn string   `json:"idColumn,omitempty" yaml:"idColumn,omitempty"`
	Columns  []string `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// StyleConfig declares a tag derived from a parent tag.
type StyleConfig struct {
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// TableStyleConfig declares a table style with its column order and
// column-to-cell-style mappings.
type TableStyleConfig struct {
	Parent      string            `json:"parent,omitempty" yaml:"parent,omitempty"`
	ColumnOrder []string          `json:"columnOrder,omitempty" yaml:"columnOrder,omitempty"`
	Columns     map[string]string `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// CellStyleConfig declares a cell style and the template it renders with.
type CellStyleConfig struct {
	Parent   string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
}

// ViewConfig declares one route. Model "*" (or empty) declares the
// catch-all serving every registered model.
type ViewConfig struct {
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Method  string `json:"method,omitempty" yaml:"method,omitempty"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`
	Style   string `json:"style,omitempty" yaml:"style,omitempty"`
}

// LoadFS walks fsys and parses every .json, .yaml, and .yml file into a
// Document. Files are returned in walk order.
func LoadFS(fsys fs.FS) ([]Document, error) {
	if fsys == nil {
		return nil, nil
	}

	var docs []Document
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDeclarationFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("declarations: read %s: %w", path, err)
		}
		doc, err := Parse(data, path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Parse decodes a single declaration payload. YAML is a superset of JSON
// here, so one decoder covers both.
func Parse(data []byte, source string) (Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Document{}, fmt.Errorf("declarations: file %s is empty", source)
	}

	var doc Document
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("declarations: parse %s: %w", source, err)
	}
	doc.Source = source

	for name, model := range doc.Models {
		if strings.TrimSpace(name) == "" {
			return Document{}, fmt.Errorf("declarations: file %s declares a model with an empty name", source)
		}
		if len(model.Columns) == 0 {
			return Document{}, fmt.Errorf("declarations: model %q (file %s) declares no columns", name, source)
		}
	}
	for i, view := range doc.Views {
		if strings.TrimSpace(view.Kind) == "" {
			return Document{}, fmt.Errorf("declarations: view %d (file %s) is missing a page kind", i, source)
		}
	}
	return doc, nil
}

// Apply declares everything in doc on s. Declarations are applied in
// dependency order: models, page styles, cell styles, table styles, views.
func Apply(s *site.Site, doc Document) error {
	for _, name := range sortedKeys(doc.Models) {
		model := doc.Models[name]
		idColumn := model.IDColumn
		if idColumn == "" {
			idColumn = "id"
		}
		err := s.DeclareModel(datasource.Model{
			Name:     name,
			Label:    model.Label,
			IDColumn: idColumn,
			Columns:  append([]string(nil), model.Columns...),
		})
		if err != nil {
			return fmt.Errorf("declarations: model %q (file %s): %w", name, doc.Source, err)
		}
	}

	for _, name := range sortedKeys(doc.PageStyles) {
		if err := s.DeclarePageStyle(tags.Tag(name), tags.Tag(doc.PageStyles[name].Parent)); err != nil {
			return fmt.Errorf("declarations: page style %q (file %s): %w", name, doc.Source, err)
		}
	}

	for _, name := range sortedKeys(doc.CellStyles) {
		cell := doc.CellStyles[name]
		if err := s.DeclareCellStyle(tags.Tag(name), tags.Tag(cell.Parent), cell.Template, nil); err != nil {
			return fmt.Errorf("declarations: cell style %q (file %s): %w", name, doc.Source, err)
		}
	}

	for _, name := range sortedKeys(doc.TableStyles) {
		style := doc.TableStyles[name]
		tag := tags.Tag(name)
		if err := s.DeclareTableStyle(tag, tags.Tag(style.Parent)); err != nil {
			return fmt.Errorf("declarations: table style %q (file %s): %w", name, doc.Source, err)
		}
		if len(style.ColumnOrder) > 0 {
			if err := s.DeclareColumnOrder(tag, style.ColumnOrder); err != nil {
				return fmt.Errorf("declarations: column order for %q (file %s): %w", name, doc.Source, err)
			}
		}
		for _, column := range sortedKeys(style.Columns) {
			if err := s.MapColumn(tag, column, tags.Tag(style.Columns[column])); err != nil {
				return fmt.Errorf("declarations: column %q of %q (file %s): %w", column, name, doc.Source, err)
			}
		}
	}

	for i, view := range doc.Views {
		kind := tags.Tag(view.Kind)
		method := view.Method
		if method == "" {
			method = "GET"
		}
		model := view.Model
		if model == "" {
			model = "*"
		}
		if err := s.DeclareView(kind, method, view.Pattern, model); err != nil {
			return fmt.Errorf("declarations: view %d (file %s): %w", i, doc.Source, err)
		}
		if view.Style != "" {
			if err := s.DeclareTableStyleFor(kind, view.Model, tags.Tag(view.Style)); err != nil {
				return fmt.Errorf("declarations: view %d style (file %s): %w", i, doc.Source, err)
			}
		}
	}

	if doc.DefaultViews {
		if err := s.DeclareDefaultViews(); err != nil {
			return fmt.Errorf("declarations: default views (file %s): %w", doc.Source, err)
		}
	}
	return nil
}

// ApplyFS loads every declaration file under fsys and applies them in order.
func ApplyFS(s *site.Site, fsys fs.FS) error {
	docs, err := LoadFS(fsys)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := Apply(s, doc); err != nil {
			return err
		}
	}
	return nil
}

func isDeclarationFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
