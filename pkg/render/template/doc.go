// Package template defines the engine-agnostic template rendering seam the
// table and page renderers compose through. The gotemplate subpackage
// provides the default pongo2-backed implementation.
package template
