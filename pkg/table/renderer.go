// Package table renders record collections into markup. For every column it
// resolves a display order, a cell style, and per-style template and
// transform, all through dispatch tables with hierarchy-ancestor fallback. A
// failing cell degrades to empty markup instead of aborting the table.
package table

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-admingen/pkg/datasource"
	"github.com/goliatone/go-admingen/pkg/dispatch"
	rendertemplate "github.com/goliatone/go-admingen/pkg/render/template"
	"github.com/goliatone/go-admingen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-admingen/pkg/tags"
)

// DefaultStyle is the global table style consulted when a specific style has
// no declaration for a column.
const DefaultStyle tags.Tag = "default-table"

const defaultCellTemplate = "templates/cells/text"

// Transform adjusts a raw field value before its cell template runs. The
// record is available for transforms that compose over several fields.
type Transform func(value any, record datasource.Record) (any, error)

// Column is one rendered table column.
type Column struct {
	Name  string
	Label string
}

// Row holds the rendered cells of one record, in column order.
type Row struct {
	Cells []Cell
}

// Cell is one rendered table cell.
type Cell struct {
	Column string
	HTML   string
}

// Table is the rendered output consumed by the page renderer.
type Table struct {
	Style   tags.Tag
	Columns []Column
	Rows    []Row
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(r *Renderer) {
		if renderer != nil {
			r.templates = renderer
		}
	}
}

// WithLogger overrides the default slog logger used for degraded cells.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSanitizer runs every rendered cell through the given bluemonday policy.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(r *Renderer) {
		r.sanitizer = policy
	}
}

// WithLinkBase sets the path prefix used when cell templates build links back
// to their own model, typically the admin mount path.
func WithLinkBase(basePath string) Option {
	return func(r *Renderer) {
		r.linkBase = strings.TrimRight(strings.TrimSpace(basePath), "/")
	}
}

// Renderer resolves styling declarations and renders tables. Declarations
// happen at startup; rendering is safe for concurrent use afterwards.
type Renderer struct {
	hierarchy *tags.Hierarchy
	templates rendertemplate.TemplateRenderer
	logger    *slog.Logger
	sanitizer *bluemonday.Policy
	linkBase  string

	columnOrders  *dispatch.Table[[]string]
	cellStyles    *dispatch.Table[tags.Tag]
	cellTemplates *dispatch.Table[string]
	transforms    *dispatch.Table[Transform]
}

// New constructs a table renderer over the shared tag hierarchy. Without an
// injected template engine it renders with the embedded cell templates.
func New(hierarchy *tags.Hierarchy, options ...Option) (*Renderer, error) {
	if hierarchy == nil {
		hierarchy = tags.NewHierarchy()
	}
	renderer := &Renderer{
		hierarchy:     hierarchy,
		logger:        slog.Default(),
		linkBase:      "/admin",
		columnOrders:  dispatch.NewTable[[]string](hierarchy, 1),
		cellStyles:    dispatch.NewTable[tags.Tag](hierarchy, 2),
		cellTemplates: dispatch.NewTable[string](hierarchy, 1),
		transforms:    dispatch.NewTable[Transform](hierarchy, 1),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(renderer)
	}

	if renderer.templates == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(TemplatesFS()))
		if err != nil {
			return nil, fmt.Errorf("table: configure template renderer: %w", err)
		}
		renderer.templates = engine
	}
	return renderer, nil
}

// DeclareTableStyle registers a table style tag, optionally derived from a
// parent style. An empty parent derives from DefaultStyle.
func (r *Renderer) DeclareTableStyle(style, parent tags.Tag) error {
	if parent == "" {
		parent = DefaultStyle
	}
	if style == parent {
		return nil
	}
	return r.hierarchy.Derive(style, parent)
}

// DeclareCellStyle registers a cell style with its template name and optional
// transform. An empty parent leaves the style a hierarchy root; an empty
// template name declares the tag only, inheriting templates from ancestors.
func (r *Renderer) DeclareCellStyle(style, parent tags.Tag, templateName string, transform Transform) error {
	if style == "" {
		return fmt.Errorf("table: cell style tag is required")
	}
	if parent != "" {
		if err := r.hierarchy.Derive(style, parent); err != nil {
			return err
		}
	}
	if templateName != "" {
		if err := r.cellTemplates.Register(dispatch.Key{dispatch.On(style)}, templateName); err != nil {
			return err
		}
	}
	if transform != nil {
		if err := r.transforms.Register(dispatch.Key{dispatch.On(style)}, transform); err != nil {
			return err
		}
	}
	return nil
}

// DeclareColumnOrder fixes the column order rendered for a table style.
func (r *Renderer) DeclareColumnOrder(style tags.Tag, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("table: column order needs at least one column")
	}
	return r.columnOrders.Register(dispatch.Key{dispatch.On(style)}, append([]string(nil), columns...))
}

// MapColumn binds a column name to a cell style for the given table style.
// Use DefaultStyle to declare the global fallback mapping.
func (r *Renderer) MapColumn(style tags.Tag, column string, cellStyle tags.Tag) error {
	if column == "" || cellStyle == "" {
		return fmt.Errorf("table: column and cell style are required")
	}
	return r.cellStyles.Register(dispatch.Key{dispatch.On(style), dispatch.OnType(column)}, cellStyle)
}

// Render resolves columns and styles for tableStyle and renders every record
// into a row. A single failing cell renders empty and is logged; declaration
// conflicts (ambiguous dispatch) propagate as errors.
func (r *Renderer) Render(tableStyle tags.Tag, model datasource.Model, records []datasource.Record) (Table, error) {
	columns, err := r.columnOrder(tableStyle, model, records)
	if err != nil {
		return Table{}, err
	}

	out := Table{Style: tableStyle, Columns: make([]Column, 0, len(columns))}
	for _, name := range columns {
		out.Columns = append(out.Columns, Column{Name: name, Label: Label(name)})
	}

	for _, record := range records {
		row := Row{Cells: make([]Cell, 0, len(columns))}
		for _, name := range columns {
			row.Cells = append(row.Cells, r.renderCell(tableStyle, model, record, name))
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Field is one rendered detail-page field.
type Field struct {
	Name  string
	Label string
	HTML  string
}

// RenderFields renders a single record through the same column-order and
// cell-style machinery as Render, returning one field per column. Detail
// pages compose these into a definition list.
func (r *Renderer) RenderFields(tableStyle tags.Tag, model datasource.Model, record datasource.Record) ([]Field, error) {
	columns, err := r.columnOrder(tableStyle, model, []datasource.Record{record})
	if err != nil {
		return nil, err
	}

	fields := make([]Field, 0, len(columns))
	for _, name := range columns {
		cell := r.renderCell(tableStyle, model, record, name)
		fields = append(fields, Field{Name: name, Label: Label(name), HTML: cell.HTML})
	}
	return fields, nil
}

// columnOrder returns the declared order for tableStyle, or derives one: the
// identifier column first, remaining columns lexicographic. With no records
// at all the declared model order passes through untouched.
func (r *Renderer) columnOrder(tableStyle tags.Tag, model datasource.Model, records []datasource.Record) ([]string, error) {
	declared, err := r.columnOrders.Resolve(dispatch.On(tableStyle))
	if err == nil {
		return declared, nil
	}
	var missing *dispatch.NoHandlerError
	if !errors.As(err, &missing) {
		return nil, err
	}

	if len(records) == 0 {
		return append([]string(nil), model.Columns...), nil
	}

	known := records[0].Fields()
	if len(known) == 0 {
		known = model.Columns
	}

	idColumn := model.IDColumn
	if idColumn == "" {
		idColumn = "id"
	}

	rest := make([]string, 0, len(known))
	hasID := false
	for _, name := range known {
		if name == idColumn {
			hasID = true
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)
	if hasID {
		return append([]string{idColumn}, rest...), nil
	}
	return rest, nil
}

// cellStyle resolves the style for a column with two-level fallback: lookup
// against tableStyle, then against the global DefaultStyle, else none.
func (r *Renderer) cellStyle(tableStyle tags.Tag, column string) (tags.Tag, error) {
	style, err := r.cellStyles.Resolve(dispatch.On(tableStyle), dispatch.OnType(column))
	if err == nil {
		return style, nil
	}
	var missing *dispatch.NoHandlerError
	if !errors.As(err, &missing) {
		return "", err
	}
	if tableStyle == DefaultStyle {
		return "", nil
	}

	style, err = r.cellStyles.Resolve(dispatch.On(DefaultStyle), dispatch.OnType(column))
	if err == nil {
		return style, nil
	}
	if errors.As(err, &missing) {
		return "", nil
	}
	return "", err
}

func (r *Renderer) renderCell(tableStyle tags.Tag, model datasource.Model, record datasource.Record, column string) Cell {
	cell := Cell{Column: column}

	markup, err := r.renderCellMarkup(tableStyle, model, record, column)
	if err != nil {
		r.logger.Warn("cell render degraded to empty",
			"table_style", string(tableStyle),
			"model", model.Name,
			"column", column,
			"error", err)
		return cell
	}

	if r.sanitizer != nil {
		markup = r.sanitizer.Sanitize(markup)
	}
	cell.HTML = markup
	return cell
}

func (r *Renderer) renderCellMarkup(tableStyle tags.Tag, model datasource.Model, record datasource.Record, column string) (string, error) {
	style, err := r.cellStyle(tableStyle, column)
	if err != nil {
		return "", err
	}

	templateName := defaultCellTemplate
	transform := Transform(nil)
	if style != "" {
		if name, err := r.cellTemplates.Resolve(dispatch.On(style)); err == nil {
			templateName = name
		} else {
			var missing *dispatch.NoHandlerError
			if !errors.As(err, &missing) {
				return "", err
			}
		}
		if fn, err := r.transforms.Resolve(dispatch.On(style)); err == nil {
			transform = fn
		} else {
			var missing *dispatch.NoHandlerError
			if !errors.As(err, &missing) {
				return "", err
			}
		}
	}

	value, _ := record.Get(column)
	if transform != nil {
		value, err = transform(value, record)
		if err != nil {
			return "", fmt.Errorf("table: transform column %q: %w", column, err)
		}
	}

	// The model and record identity travel explicitly with every cell render
	// so templates can link back without ambient request state.
	idColumn := model.IDColumn
	if idColumn == "" {
		idColumn = "id"
	}
	id, _ := record.Get(idColumn)

	data := map[string]any{
		"value":  value,
		"column": column,
		"model":  model.Name,
		"id":     id,
		"url":    r.recordURL(model.Name, id),
	}
	return r.templates.Render(templateName, data)
}

func (r *Renderer) recordURL(model string, id any) string {
	if id == nil {
		return r.linkBase + "/" + model
	}
	return fmt.Sprintf("%s/%s/%v", r.linkBase, model, id)
}

// Label derives a column header from its identifier: separators become
// spaces, words are capitalised.
func Label(column string) string {
	replacer := strings.NewReplacer("_", " ", "-", " ", ".", " ")
	words := strings.Fields(replacer.Replace(column))
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}
