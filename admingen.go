package admingen

import (
	"github.com/goliatone/go-admingen/pkg/datasource"
	"github.com/goliatone/go-admingen/pkg/page"
	"github.com/goliatone/go-admingen/pkg/site"
	"github.com/goliatone/go-admingen/pkg/table"
	"github.com/goliatone/go-admingen/pkg/tags"
)

// Tag identifies a node in the style hierarchy; alias exported via the root
// package for convenience.
type Tag = tags.Tag

// Model describes an admin-managed data model.
type Model = datasource.Model

// Filters carries column/value pairs applied to data source queries.
type Filters = datasource.Filters

// Record is one row returned by a data source.
type Record = datasource.Record

// MapRecord is the map-backed Record used by the in-memory store and tests.
type MapRecord = datasource.MapRecord

// DataSource is the read contract the generated pages fetch through.
type DataSource = datasource.DataSource

// Site is the admin generator composition root.
type Site = site.Site

// Option configures a Site.
type Option = site.Option

// Handler serves one resolved (page kind, model) pair.
type Handler = site.Handler

// Transform rewrites a cell value before its template renders it.
type Transform = table.Transform

// Action renders a quick action in a page header.
type Action = page.Action

// Link is an anchor-style quick action.
type Link = page.Link

// Search is a query-form quick action.
type Search = page.Search

// Breadcrumb is one entry in a page's breadcrumb trail.
type Breadcrumb = page.Breadcrumb

// Built-in page kinds.
const (
	PageKind   = site.PageKind
	ListKind   = site.ListKind
	DetailKind = site.DetailKind
)

// DefaultTableStyle is the root of the table style hierarchy.
const DefaultTableStyle = table.DefaultStyle

// New constructs a Site over data. See the site package for the declaration
// API; the common quick start is New, DeclareModel per model, then
// DeclareDefaultViews and Mount.
func New(data DataSource, options ...Option) (*Site, error) {
	return site.New(data, options...)
}

// Re-exported Site options, so the quick-start path needs only this package.
var (
	WithBasePath         = site.WithBasePath
	WithPageSize         = site.WithPageSize
	WithLogger           = site.WithLogger
	WithModels           = site.WithModels
	WithTemplatesFS      = site.WithTemplatesFS
	WithTemplateRenderer = site.WithTemplateRenderer
	WithSanitizer        = site.WithSanitizer
	WithTheme            = site.WithTheme
)
