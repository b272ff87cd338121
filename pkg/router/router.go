// Package router owns the per-model route declarations and the compiled
// request router derived from them. Compilation is lazy: every registration
// invalidates the current snapshot, and the next request rebuilds and
// atomically swaps in a fresh one. In-flight requests always observe one
// complete snapshot, never a router mid-construction.
package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-admingen/pkg/datasource"
	"github.com/goliatone/go-admingen/pkg/tags"
)

// DefaultModel is the sentinel routing a view to every model that has no
// dedicated route list of its own.
const DefaultModel = "*"

// Dispatcher resolves the page handler serving a (page kind, model) pair.
// The site wires this to its dispatch table.
type Dispatcher func(pageKind tags.Tag, model datasource.Model) (http.Handler, error)

// Entry is one declared route: created at registration, never mutated.
type Entry struct {
	Method   string
	Pattern  string
	PageKind tags.Tag
	Model    string
}

// Option configures a Registry.
type Option func(*Registry)

// WithBasePath mounts every compiled route under the given prefix.
func WithBasePath(basePath string) Option {
	return func(r *Registry) {
		r.basePath = normalizeBasePath(basePath)
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry holds route declarations per model and serves requests through a
// lazily compiled snapshot.
type Registry struct {
	resolver datasource.ModelResolver
	dispatch Dispatcher
	basePath string
	logger   *slog.Logger

	mu       sync.Mutex
	byModel  map[string][]Entry
	defaults []Entry

	generation atomic.Uint64
	compiled   atomic.Pointer[snapshot]
	rebuilds   atomic.Uint64
}

type snapshot struct {
	generation uint64
	mux        *http.ServeMux
	err        error
}

// NewRegistry creates a registry resolving catch-all model segments through
// resolver and serving matched routes through dispatch.
func NewRegistry(resolver datasource.ModelResolver, dispatch Dispatcher, options ...Option) *Registry {
	reg := &Registry{
		resolver: resolver,
		dispatch: dispatch,
		basePath: "/admin",
		logger:   slog.Default(),
		byModel:  make(map[string][]Entry),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(reg)
	}
	return reg
}

// BasePath returns the mount prefix for compiled routes.
func (r *Registry) BasePath() string {
	return r.basePath
}

// AddRoute appends a route entry to the model's list (or the default list
// when model is DefaultModel) and invalidates the compiled router.
func (r *Registry) AddRoute(method, pattern string, pageKind tags.Tag, model string) error {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return fmt.Errorf("router: method is required")
	}
	if pageKind == "" {
		return fmt.Errorf("router: page kind is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("router: model is required (use DefaultModel for the catch-all list)")
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = "/"
	}
	if !strings.HasPrefix(pattern, "/") {
		pattern = "/" + pattern
	}

	entry := Entry{Method: method, Pattern: pattern, PageKind: pageKind, Model: model}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.defaults
	if model != DefaultModel {
		list = r.byModel[model]
	}
	for _, existing := range list {
		if existing.Method == method && existing.Pattern == pattern {
			return fmt.Errorf("router: %s %s already declared for model %q", method, pattern, model)
		}
	}

	if model == DefaultModel {
		r.defaults = append(r.defaults, entry)
	} else {
		r.byModel[model] = append(r.byModel[model], entry)
	}
	r.generation.Add(1)
	return nil
}

// Route returns the handler matching the request, rebuilding the compiled
// router first if a registration invalidated it. The second return is false
// when nothing matches.
func (r *Registry) Route(req *http.Request) (http.Handler, bool) {
	snap := r.current()
	if snap.err != nil {
		err := snap.err
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, err)
		}), true
	}
	if snap.mux == nil {
		return nil, false
	}
	if _, pattern := snap.mux.Handler(req); pattern == "" {
		return nil, false
	}
	// Dispatch through the mux itself rather than the matched handler:
	// ServeMux binds wildcard path values only inside its own ServeHTTP.
	return snap.mux, true
}

// ServeHTTP serves the request through the compiled router, answering with a
// structured not-found response when no route matches.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler, ok := r.Route(req)
	if !ok {
		WriteError(w, StatusError{Code: http.StatusNotFound, Err: fmt.Errorf("router: no route for %s %s", req.Method, req.URL.Path)})
		return
	}
	handler.ServeHTTP(w, req)
}

// current returns a snapshot consistent with the latest registration,
// building one if needed. Builds run outside any lock; a build superseded by
// a concurrent winner is discarded, not retried against the same generation.
func (r *Registry) current() *snapshot {
	for {
		cur := r.compiled.Load()
		gen := r.generation.Load()
		if cur != nil && cur.generation == gen {
			return cur
		}
		built := r.build(gen)
		if r.compiled.CompareAndSwap(cur, built) {
			return built
		}
	}
}

// build compiles the routed model map into a fresh ServeMux. It is a pure
// function of the declarations snapshot, so racing builds for the same
// generation are interchangeable.
func (r *Registry) build(generation uint64) *snapshot {
	r.rebuilds.Add(1)

	r.mu.Lock()
	models := make([]string, 0, len(r.byModel))
	for name := range r.byModel {
		models = append(models, name)
	}
	sort.Strings(models)
	byModel := make(map[string][]Entry, len(r.byModel))
	for name, entries := range r.byModel {
		byModel[name] = append([]Entry(nil), entries...)
	}
	defaults := append([]Entry(nil), r.defaults...)
	r.mu.Unlock()

	snap := &snapshot{generation: generation}
	defer func() {
		if recovered := recover(); recovered != nil {
			snap.mux = nil
			snap.err = StatusError{
				Code: http.StatusInternalServerError,
				Err:  fmt.Errorf("router: conflicting route declarations: %v", recovered),
			}
		}
	}()

	mux := http.NewServeMux()
	for _, name := range models {
		for _, entry := range byModel[name] {
			mux.Handle(r.pattern(entry.Method, "/"+name, entry.Pattern), r.modelHandler(entry))
		}
	}
	for _, entry := range defaults {
		mux.Handle(r.pattern(entry.Method, "/{model}", entry.Pattern), r.catchAllHandler(entry))
	}
	snap.mux = mux
	return snap
}

func (r *Registry) pattern(method, scope, route string) string {
	path := r.basePath + scope
	if route != "/" {
		path += route
	}
	return method + " " + path
}

// modelHandler serves a route scoped to a known model identifier.
func (r *Registry) modelHandler(entry Entry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.serve(w, req, entry.PageKind, entry.Model)
	})
}

// catchAllHandler extracts the model identifier from the URL path segment and
// resolves it per request; unknown models answer a structured not found.
func (r *Registry) catchAllHandler(entry Entry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.serve(w, req, entry.PageKind, req.PathValue("model"))
	})
}

func (r *Registry) serve(w http.ResponseWriter, req *http.Request, pageKind tags.Tag, modelName string) {
	model, err := r.resolver.ResolveModel(modelName)
	if err != nil {
		r.logger.Warn("route hit unknown model", "model", modelName, "path", req.URL.Path)
		WriteError(w, err)
		return
	}

	handler, err := r.dispatch(pageKind, model)
	if err != nil {
		WriteError(w, err)
		return
	}
	handler.ServeHTTP(w, req)
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
