// Package site is the composition root: it owns the shared tag hierarchy,
// the dispatch tables for every polymorphic operation, the route registry,
// and the table and page renderers, exposing the declaration API the rest of
// the module is configured through.
//
// Lifecycle is declare-then-serve: Declare* calls happen during startup,
// requests are served concurrently afterwards. The only declaration the
// serving path tolerates mid-flight is route registration, absorbed by the
// route registry's snapshot swap.
package site

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-admingen/pkg/datasource"
	"github.com/goliatone/go-admingen/pkg/dispatch"
	"github.com/goliatone/go-admingen/pkg/page"
	rendertemplate "github.com/goliatone/go-admingen/pkg/render/template"
	"github.com/goliatone/go-admingen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-admingen/pkg/router"
	"github.com/goliatone/go-admingen/pkg/table"
	"github.com/goliatone/go-admingen/pkg/tags"
)

// Built-in page kinds. Every declared page style ultimately derives from
// PageKind.
const (
	PageKind   tags.Tag = "page"
	ListKind   tags.Tag = "list"
	DetailKind tags.Tag = "detail"
)

const defaultPageSize = 20

// pageParam is the query parameter carrying the 1-based list page number.
const pageParam = "page"

// Handler serves one resolved (page kind, model) pair.
type Handler func(pageKind tags.Tag, model datasource.Model, w http.ResponseWriter, r *http.Request)

// ActionsFunc produces the quick actions for a page render.
type ActionsFunc func(model datasource.Model, r *http.Request) []page.Action

// CrumbsFunc produces the breadcrumb trail for a page render.
type CrumbsFunc func(model datasource.Model, r *http.Request) []page.Breadcrumb

// Mux is the minimal interface required to mount the site on a net/http
// multiplexer. It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Option configures a Site.
type Option func(*config)

type config struct {
	basePath   string
	pageSize   int
	logger     *slog.Logger
	models     *datasource.Models
	templates  rendertemplate.TemplateRenderer
	templateFS []fs.FS
	sanitizer  *bluemonday.Policy

	themeSelector theme.ThemeSelector
	themeName     string
	themeVariant  string
}

// WithBasePath mounts the admin under the given path prefix (default /admin).
func WithBasePath(basePath string) Option {
	return func(cfg *config) {
		cfg.basePath = basePath
	}
}

// WithPageSize sets the list page size (default 20).
func WithPageSize(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.pageSize = size
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithModels injects a pre-populated model registry.
func WithModels(models *datasource.Models) Option {
	return func(cfg *config) {
		if models != nil {
			cfg.models = models
		}
	}
}

// WithTemplatesFS overlays caller templates over the embedded bundles.
// Names collide in the caller's favour.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = append(cfg.templateFS, files)
		}
	}
}

// WithTemplateRenderer injects a custom template engine, replacing the
// embedded bundles entirely.
func WithTemplateRenderer(templates rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if templates != nil {
			cfg.templates = templates
		}
	}
}

// WithSanitizer runs rendered cells through the given bluemonday policy.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		cfg.sanitizer = policy
	}
}

// WithTheme resolves the named go-theme selection for every rendered page.
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(cfg *config) {
		cfg.themeSelector = selector
		cfg.themeName = name
		cfg.themeVariant = variant
	}
}

// Site wires the hierarchy, dispatch tables, renderers, and route registry
// into one admin page generator.
type Site struct {
	hierarchy *tags.Hierarchy
	models    *datasource.Models
	data      datasource.DataSource
	logger    *slog.Logger
	basePath  string
	pageSize  int

	tables *table.Renderer
	pages  *page.Renderer
	routes *router.Registry

	handlers    *dispatch.Table[Handler]
	actionSets  *dispatch.Table[ActionsFunc]
	crumbSets   *dispatch.Table[CrumbsFunc]
	tableStyles *dispatch.Table[tags.Tag]
}

// New constructs a Site over the given data source. The built-in list and
// detail page kinds, their default handlers, and the default table style are
// declared up front; everything else arrives through Declare* calls.
func New(data datasource.DataSource, options ...Option) (*Site, error) {
	if data == nil {
		return nil, fmt.Errorf("site: data source is required")
	}

	cfg := &config{
		basePath: "/admin",
		pageSize: defaultPageSize,
		logger:   slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.models == nil {
		cfg.models = datasource.NewModels()
	}

	hierarchy := tags.NewHierarchy()
	if err := hierarchy.Derive(ListKind, PageKind); err != nil {
		return nil, err
	}
	if err := hierarchy.Derive(DetailKind, PageKind); err != nil {
		return nil, err
	}

	templates := cfg.templates
	if templates == nil {
		fsOptions := make([]gotemplate.Option, 0, len(cfg.templateFS)+2)
		for _, files := range cfg.templateFS {
			fsOptions = append(fsOptions, gotemplate.WithFS(files))
		}
		fsOptions = append(fsOptions, gotemplate.WithFS(page.TemplatesFS()), gotemplate.WithFS(table.TemplatesFS()))
		engine, err := gotemplate.New(fsOptions...)
		if err != nil {
			return nil, fmt.Errorf("site: configure template renderer: %w", err)
		}
		templates = engine
	}

	basePath := normalizeBasePath(cfg.basePath)

	tableOptions := []table.Option{
		table.WithTemplateRenderer(templates),
		table.WithLogger(cfg.logger),
		table.WithLinkBase(basePath),
	}
	if cfg.sanitizer != nil {
		tableOptions = append(tableOptions, table.WithSanitizer(cfg.sanitizer))
	}
	tables, err := table.New(hierarchy, tableOptions...)
	if err != nil {
		return nil, err
	}

	pageOptions := []page.Option{
		page.WithTemplateRenderer(templates),
		page.WithLogger(cfg.logger),
	}
	if cfg.themeSelector != nil {
		pageOptions = append(pageOptions, page.WithThemeSelector(cfg.themeSelector, cfg.themeName, cfg.themeVariant))
	}
	pages, err := page.New(hierarchy, pageOptions...)
	if err != nil {
		return nil, err
	}

	s := &Site{
		hierarchy:   hierarchy,
		models:      cfg.models,
		data:        data,
		logger:      cfg.logger,
		basePath:    basePath,
		pageSize:    cfg.pageSize,
		tables:      tables,
		pages:       pages,
		handlers:    dispatch.NewTable[Handler](hierarchy, 2),
		actionSets:  dispatch.NewTable[ActionsFunc](hierarchy, 2),
		crumbSets:   dispatch.NewTable[CrumbsFunc](hierarchy, 2),
		tableStyles: dispatch.NewTable[tags.Tag](hierarchy, 2),
	}
	s.routes = router.NewRegistry(s.models, s.dispatchHandler,
		router.WithBasePath(basePath),
		router.WithLogger(cfg.logger))

	if err := s.handlers.Register(dispatch.Key{dispatch.On(ListKind), dispatch.Any()}, s.listHandler); err != nil {
		return nil, err
	}
	if err := s.handlers.Register(dispatch.Key{dispatch.On(DetailKind), dispatch.Any()}, s.detailHandler); err != nil {
		return nil, err
	}
	return s, nil
}

// Hierarchy exposes the shared tag hierarchy.
func (s *Site) Hierarchy() *tags.Hierarchy {
	return s.hierarchy
}

// Tables exposes the table renderer for advanced declarations.
func (s *Site) Tables() *table.Renderer {
	return s.tables
}

// Pages exposes the page renderer for advanced declarations.
func (s *Site) Pages() *page.Renderer {
	return s.pages
}

// BasePath returns the admin mount prefix.
func (s *Site) BasePath() string {
	return s.basePath
}

// DeclareModel registers an admin-managed model.
func (s *Site) DeclareModel(model datasource.Model) error {
	return s.models.Register(model)
}

// DeclareView registers a route for a page kind, scoped to a model or to the
// catch-all list when model is router.DefaultModel.
func (s *Site) DeclareView(pageKind tags.Tag, method, pattern, model string) error {
	return s.routes.AddRoute(method, pattern, pageKind, model)
}

// DeclareDefaultViews installs the catch-all list and detail routes every
// registered (and future) model is served through.
func (s *Site) DeclareDefaultViews() error {
	if err := s.DeclareView(ListKind, http.MethodGet, "/", router.DefaultModel); err != nil {
		return err
	}
	return s.DeclareView(DetailKind, http.MethodGet, "/{id}", router.DefaultModel)
}

// DeclarePageStyle registers a page-kind tag derived from parent (PageKind
// when parent is empty).
func (s *Site) DeclarePageStyle(kind, parent tags.Tag) error {
	if parent == "" {
		parent = PageKind
	}
	return s.hierarchy.Derive(kind, parent)
}

// DeclareTableStyle registers a table style tag, optionally derived from a
// parent style.
func (s *Site) DeclareTableStyle(style, parent tags.Tag) error {
	return s.tables.DeclareTableStyle(style, parent)
}

// DeclareCellStyle registers a cell style with template and transform.
func (s *Site) DeclareCellStyle(style, parent tags.Tag, templateName string, transform table.Transform) error {
	return s.tables.DeclareCellStyle(style, parent, templateName, transform)
}

// DeclareColumnOrder fixes the rendered column order for a table style.
func (s *Site) DeclareColumnOrder(style tags.Tag, columns []string) error {
	return s.tables.DeclareColumnOrder(style, columns)
}

// MapColumn binds a column to a cell style under a table style.
func (s *Site) MapColumn(style tags.Tag, column string, cellStyle tags.Tag) error {
	return s.tables.MapColumn(style, column, cellStyle)
}

// DeclareTableStyleFor selects the table style used when pageKind renders
// model. An empty model applies to every model.
func (s *Site) DeclareTableStyleFor(pageKind tags.Tag, model string, style tags.Tag) error {
	return s.tableStyles.Register(key2(pageKind, model), style)
}

// DeclareActions binds a quick-action producer to (pageKind, model). An
// empty model applies to every model.
func (s *Site) DeclareActions(pageKind tags.Tag, model string, fn ActionsFunc) error {
	if fn == nil {
		return fmt.Errorf("site: actions func is required")
	}
	return s.actionSets.Register(key2(pageKind, model), fn)
}

// DeclareCrumbs binds a breadcrumb producer to (pageKind, model). An empty
// model applies to every model.
func (s *Site) DeclareCrumbs(pageKind tags.Tag, model string, fn CrumbsFunc) error {
	if fn == nil {
		return fmt.Errorf("site: crumbs func is required")
	}
	return s.crumbSets.Register(key2(pageKind, model), fn)
}

// DeclarePageHandler overrides the request handler for (pageKind, model). An
// empty model applies to every model.
func (s *Site) DeclarePageHandler(pageKind tags.Tag, model string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("site: handler is required")
	}
	return s.handlers.Register(key2(pageKind, model), handler)
}

// RegisterPageRenderer binds a full-page renderer to a page kind.
func (s *Site) RegisterPageRenderer(kind tags.Tag, fn page.RendererFunc) error {
	return s.pages.RegisterRenderer(kind, fn)
}

// Mount registers the site on mux under its base path.
func (s *Site) Mount(mux Mux) {
	prefix := s.basePath
	if prefix == "" {
		mux.Handle("/", s)
		return
	}
	mux.Handle(prefix+"/", s)
	mux.Handle(prefix, s)
}

// ServeHTTP serves a request through the compiled router.
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.routes.ServeHTTP(w, r)
}

// Route exposes the route registry's matching for callers composing their
// own serving loop.
func (s *Site) Route(r *http.Request) (http.Handler, bool) {
	return s.routes.Route(r)
}

// dispatchHandler is the router's seam into the handler dispatch table. A
// missing handler surfaces as a structured not found, an ambiguous one as a
// declaration conflict.
func (s *Site) dispatchHandler(pageKind tags.Tag, model datasource.Model) (http.Handler, error) {
	handler, err := s.handlers.Resolve(dispatch.On(pageKind), dispatch.OnType(model.Name))
	if err != nil {
		var missing *dispatch.NoHandlerError
		if errors.As(err, &missing) {
			return nil, router.StatusError{Code: http.StatusNotFound, Err: err}
		}
		return nil, err
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(pageKind, model, w, r)
	}), nil
}

func key2(pageKind tags.Tag, model string) dispatch.Key {
	if model == "" || model == router.DefaultModel {
		return dispatch.Key{dispatch.On(pageKind), dispatch.Any()}
	}
	return dispatch.Key{dispatch.On(pageKind), dispatch.OnType(model)}
}

func normalizeBasePath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" || basePath == "/" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return strings.TrimRight(basePath, "/")
}

func modelTitle(model datasource.Model) string {
	if model.Label != "" {
		return model.Label
	}
	return table.Label(model.Name)
}

// listURL builds the list page URL for model, preserving query values.
func (s *Site) listURL(model datasource.Model, query url.Values) string {
	target := s.basePath + "/" + model.Name
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func parsePage(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 1
	}
	return value
}
