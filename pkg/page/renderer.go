// Package page composes full admin pages: a page-kind-specific renderer
// resolved through the dispatch table when one is registered, otherwise a
// default renderer wrapping the content template, quick actions, breadcrumbs,
// and theme context in the embedded page shell.
package page

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-admingen/pkg/dispatch"
	rendertemplate "github.com/goliatone/go-admingen/pkg/render/template"
	"github.com/goliatone/go-admingen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-admingen/pkg/tags"
)

const shellTemplate = "templates/page"

// Options carries everything the page renderer composes. Markup produced by
// the contents template and the actions is inserted without escaping; callers
// own what reaches those templates.
type Options struct {
	Title            string
	ContentsTemplate string
	ContentsData     map[string]any
	Actions          []Action
	Crumbs           []Breadcrumb
}

// Validate checks the invariants shared by every page render.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Title) == "" {
		return fmt.Errorf("page: title is required")
	}
	if strings.TrimSpace(o.ContentsTemplate) == "" {
		return fmt.Errorf("page: contents template is required")
	}
	for i, action := range o.Actions {
		if action == nil {
			return fmt.Errorf("page: action %d does not render to markup", i)
		}
	}
	for i, crumb := range o.Crumbs {
		if strings.TrimSpace(crumb.Title) == "" || strings.TrimSpace(crumb.URL) == "" {
			return fmt.Errorf("page: crumb %d needs title and url", i)
		}
	}
	return nil
}

// RendererFunc is a page-kind-specific full-page renderer.
type RendererFunc func(pageKind tags.Tag, opts Options) (string, error)

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(templates rendertemplate.TemplateRenderer) Option {
	return func(r *Renderer) {
		if templates != nil {
			r.templates = templates
		}
	}
}

// WithLogger overrides the default slog logger used for degraded actions.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithThemeSelector resolves a go-theme selection ahead of rendering so the
// shell template receives the theme's tokens as CSS custom properties.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(r *Renderer) {
		r.themeSelector = selector
		r.themeName = name
		r.themeVariant = variant
	}
}

// Renderer composes pages. Declarations happen at startup; Render is safe for
// concurrent use afterwards.
type Renderer struct {
	hierarchy *tags.Hierarchy
	templates rendertemplate.TemplateRenderer
	logger    *slog.Logger

	pageRenderers *dispatch.Table[RendererFunc]

	themeSelector theme.ThemeSelector
	themeName     string
	themeVariant  string
}

// New constructs a page renderer over the shared tag hierarchy. Without an
// injected engine it renders with the embedded shell templates.
func New(hierarchy *tags.Hierarchy, options ...Option) (*Renderer, error) {
	if hierarchy == nil {
		hierarchy = tags.NewHierarchy()
	}
	renderer := &Renderer{
		hierarchy:     hierarchy,
		logger:        slog.Default(),
		pageRenderers: dispatch.NewTable[RendererFunc](hierarchy, 1),
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
			return nil, fmt.Errorf("page: configure template renderer: %w", err)
		}
		renderer.templates = engine
	}
	return renderer, nil
}

// Templates returns the engine pages render with, shared with actions.
func (r *Renderer) Templates() rendertemplate.TemplateRenderer {
	return r.templates
}

// DeclarePageStyle registers a page-kind tag, optionally derived from a
// parent kind.
func (r *Renderer) DeclarePageStyle(kind, parent tags.Tag) error {
	if kind == "" {
		return fmt.Errorf("page: page kind tag is required")
	}
	if parent == "" {
		return nil
	}
	return r.hierarchy.Derive(kind, parent)
}

// RegisterRenderer binds a full-page renderer to a page kind. Resolution
// walks the hierarchy, so a renderer bound to an ancestor kind serves every
// derived kind.
func (r *Renderer) RegisterRenderer(kind tags.Tag, fn RendererFunc) error {
	if fn == nil {
		return fmt.Errorf("page: renderer func is required")
	}
	return r.pageRenderers.Register(dispatch.Key{dispatch.On(kind)}, fn)
}

// Render validates opts and renders the page for pageKind: a registered
// page-kind renderer when one resolves, the default shell composition
// otherwise. Ambiguous registrations propagate as errors.
func (r *Renderer) Render(pageKind tags.Tag, opts Options) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	fn, err := r.pageRenderers.Resolve(dispatch.On(pageKind))
	if err == nil {
		return fn(pageKind, opts)
	}
	var missing *dispatch.NoHandlerError
	if !errors.As(err, &missing) {
		return "", err
	}
	return r.renderDefault(pageKind, opts)
}

// renderDefault renders the contents template, each action independently
// (failures logged and skipped), and wraps everything in the page shell.
func (r *Renderer) renderDefault(pageKind tags.Tag, opts Options) (string, error) {
	content, err := r.templates.Render(opts.ContentsTemplate, opts.ContentsData)
	if err != nil {
		return "", fmt.Errorf("page: render contents %q: %w", opts.ContentsTemplate, err)
	}

	actions := make([]string, 0, len(opts.Actions))
	for i, action := range opts.Actions {
		markup, err := action.RenderMarkup(r.templates)
		if err != nil {
			r.logger.Warn("action render degraded",
				"page_kind", string(pageKind),
				"action", i,
				"error", err)
			continue
		}
		actions = append(actions, markup)
	}

	crumbs := make([]map[string]any, 0, len(opts.Crumbs))
	for _, crumb := range opts.Crumbs {
		crumbs = append(crumbs, map[string]any{"title": crumb.Title, "url": crumb.URL})
	}

	data := map[string]any{
		"title":   opts.Title,
		"content": content,
		"actions": actions,
		"crumbs":  crumbs,
	}
	r.applyTheme(data)

	return r.templates.Render(shellTemplate, data)
}

// applyTheme resolves the configured theme selection and exposes its tokens
// as a CSS custom property block. Selection failures degrade to an unthemed
// shell.
func (r *Renderer) applyTheme(data map[string]any) {
	if r.themeSelector == nil {
		return
	}
	selection, err := r.themeSelector.Select(r.themeName, r.themeVariant)
	if err != nil || selection == nil {
		r.logger.Warn("theme selection degraded", "theme", r.themeName, "error", err)
		return
	}
	data["theme_name"] = selection.Theme
	data["theme_variant"] = selection.Variant
	if selection.Manifest != nil {
		data["theme_css"] = cssVars(selection.Manifest.Tokens)
	}
}

func cssVars(tokens map[string]string) string {
	if len(tokens) == 0 {
		return ""
	}
	names := make([]string, 0, len(tokens))
	for name := range tokens {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "--%s: %s; ", name, tokens[name])
	}
	return strings.TrimSpace(b.String())
}
