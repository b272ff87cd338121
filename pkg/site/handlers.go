package site

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goliatone/go-admingen/pkg/datasource"
	"github.com/goliatone/go-admingen/pkg/dispatch"
	"github.com/goliatone/go-admingen/pkg/page"
	"github.com/goliatone/go-admingen/pkg/router"
	"github.com/goliatone/go-admingen/pkg/table"
	"github.com/goliatone/go-admingen/pkg/tags"
)

// listHandler serves the default list page: one page of records rendered as
// a table, with a next link when more records remain.
func (s *Site) listHandler(pageKind tags.Tag, model datasource.Model, w http.ResponseWriter, r *http.Request) {
	pageNum := parsePage(r.URL.Query().Get(pageParam))
	offset := (pageNum - 1) * s.pageSize

	// Fetch one extra record to learn whether a next page exists without a
	// second query.
	records, err := s.data.FetchPage(r.Context(), model, offset, s.pageSize+1, filtersFrom(r))
	if err != nil {
		s.logger.Error("list fetch failed", "model", model.Name, "error", err)
		router.WriteError(w, err)
		return
	}

	hasNext := len(records) > s.pageSize
	if hasNext {
		records = records[:s.pageSize]
	}

	style := s.tableStyle(pageKind, model)
	rendered, err := s.tables.Render(style, model, records)
	if err != nil {
		s.logger.Error("table render failed", "model", model.Name, "style", style, "error", err)
		router.WriteError(w, err)
		return
	}

	data := tableContext(rendered)
	if hasNext {
		query := cloneQuery(r.URL.Query())
		query.Set(pageParam, strconv.Itoa(pageNum+1))
		data["next_url"] = s.listURL(model, query)
	}

	s.renderPage(pageKind, model, w, r, page.Options{
		Title:            modelTitle(model),
		ContentsTemplate: "templates/table",
		ContentsData:     data,
		Actions:          s.actions(pageKind, model, r),
		Crumbs:           s.crumbs(pageKind, model, r),
	})
}

// detailHandler serves the default detail page: a single record looked up by
// its id path segment, rendered as a field list.
func (s *Site) detailHandler(pageKind tags.Tag, model datasource.Model, w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		router.WriteError(w, router.StatusError{
			Code: http.StatusNotFound,
			Err:  fmt.Errorf("site: missing id for model %q", model.Name),
		})
		return
	}

	record, err := s.data.FetchOne(r.Context(), model, datasource.Filters{model.IDColumn: id})
	if err != nil {
		if errors.Is(err, datasource.ErrNotFound) {
			router.WriteError(w, router.StatusError{
				Code: http.StatusNotFound,
				Err:  fmt.Errorf("site: %s %q not found", model.Name, id),
			})
			return
		}
		s.logger.Error("detail fetch failed", "model", model.Name, "id", id, "error", err)
		router.WriteError(w, err)
		return
	}

	style := s.tableStyle(pageKind, model)
	fields, err := s.tables.RenderFields(style, model, record)
	if err != nil {
		s.logger.Error("detail render failed", "model", model.Name, "style", style, "error", err)
		router.WriteError(w, err)
		return
	}

	data := map[string]any{"fields": fieldContext(fields), "model": model.Name}

	s.renderPage(pageKind, model, w, r, page.Options{
		Title:            modelTitle(model) + ": " + id,
		ContentsTemplate: "templates/detail",
		ContentsData:     data,
		Actions:          s.actions(pageKind, model, r),
		Crumbs:           s.detailCrumbs(pageKind, model, id, r),
	})
}

// renderPage runs the page renderer and writes the result, converting render
// failures into structured errors.
func (s *Site) renderPage(pageKind tags.Tag, model datasource.Model, w http.ResponseWriter, r *http.Request, opts page.Options) {
	html, err := s.pages.Render(pageKind, opts)
	if err != nil {
		s.logger.Error("page render failed", "kind", pageKind, "model", model.Name, "error", err)
		router.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		s.logger.Warn("response write failed", "path", r.URL.Path, "error", err)
	}
}

// tableStyle resolves the table style for (pageKind, model), falling back to
// the default style when nothing more specific was declared.
func (s *Site) tableStyle(pageKind tags.Tag, model datasource.Model) tags.Tag {
	style, err := s.tableStyles.Resolve(dispatch.On(pageKind), dispatch.OnType(model.Name))
	if err != nil {
		var missing *dispatch.NoHandlerError
		if !errors.As(err, &missing) {
			s.logger.Warn("table style resolution failed", "kind", pageKind, "model", model.Name, "error", err)
		}
		return table.DefaultStyle
	}
	return style
}

// actions resolves the declared quick actions for (pageKind, model). No
// declaration means no actions.
func (s *Site) actions(pageKind tags.Tag, model datasource.Model, r *http.Request) []page.Action {
	fn, err := s.actionSets.Resolve(dispatch.On(pageKind), dispatch.OnType(model.Name))
	if err != nil {
		var missing *dispatch.NoHandlerError
		if !errors.As(err, &missing) {
			s.logger.Warn("action resolution failed", "kind", pageKind, "model", model.Name, "error", err)
		}
		return nil
	}
	return fn(model, r)
}

// crumbs resolves the declared breadcrumbs, defaulting to Home > Model.
func (s *Site) crumbs(pageKind tags.Tag, model datasource.Model, r *http.Request) []page.Breadcrumb {
	fn, err := s.crumbSets.Resolve(dispatch.On(pageKind), dispatch.OnType(model.Name))
	if err != nil {
		var missing *dispatch.NoHandlerError
		if !errors.As(err, &missing) {
			s.logger.Warn("crumb resolution failed", "kind", pageKind, "model", model.Name, "error", err)
		}
		return []page.Breadcrumb{
			{Title: "Home", URL: s.basePath + "/"},
			{Title: modelTitle(model), URL: s.listURL(model, nil)},
		}
	}
	return fn(model, r)
}

// detailCrumbs extends the list trail with the current record unless a
// custom trail was declared for the detail kind.
func (s *Site) detailCrumbs(pageKind tags.Tag, model datasource.Model, id string, r *http.Request) []page.Breadcrumb {
	fn, err := s.crumbSets.Resolve(dispatch.On(pageKind), dispatch.OnType(model.Name))
	if err == nil {
		return fn(model, r)
	}
	return []page.Breadcrumb{
		{Title: "Home", URL: s.basePath + "/"},
		{Title: modelTitle(model), URL: s.listURL(model, nil)},
		{Title: id, URL: s.listURL(model, nil) + "/" + id},
	}
}

// filtersFrom maps query parameters onto data source filters, skipping the
// parameters the list page itself owns.
func filtersFrom(r *http.Request) datasource.Filters {
	query := r.URL.Query()
	if len(query) == 0 {
		return nil
	}
	filters := datasource.Filters{}
	for name, values := range query {
		if name == pageParam || len(values) == 0 {
			continue
		}
		filters[name] = values[0]
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

func cloneQuery(query url.Values) url.Values {
	out := url.Values{}
	for name, values := range query {
		out[name] = append([]string(nil), values...)
	}
	return out
}

// tableContext flattens a rendered table into the shape the table template
// consumes.
func tableContext(rendered table.Table) map[string]any {
	columns := make([]map[string]any, 0, len(rendered.Columns))
	for _, column := range rendered.Columns {
		columns = append(columns, map[string]any{"name": column.Name, "label": column.Label})
	}
	rows := make([]map[string]any, 0, len(rendered.Rows))
	for _, row := range rendered.Rows {
		cells := make([]map[string]any, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, map[string]any{"column": cell.Column, "html": cell.HTML})
		}
		rows = append(rows, map[string]any{"cells": cells})
	}
	return map[string]any{
		"style":   string(rendered.Style),
		"columns": columns,
		"rows":    rows,
	}
}

func fieldContext(fields []table.Field) []map[string]any {
	out := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		out = append(out, map[string]any{
			"name":  field.Name,
			"label": field.Label,
			"html":  field.HTML,
		})
	}
	return out
}
