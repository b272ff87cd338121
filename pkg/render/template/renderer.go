package template

import (
	"fmt"
	"io"
)

// TemplateRenderer mirrors the github.com/goliatone/go-template engine
// contract, providing the seam the page and table renderers depend on.
// Inserted markup is not escaped by this layer; callers own the decision of
// what reaches a template.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

// NotFoundError reports a template name the engine could not load.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template: %q not found", e.Name)
}

// RenderError reports a template that loaded but failed to execute.
type RenderError struct {
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("template: render %q: %v", e.Name, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
