package page

import (
	"fmt"
	"strings"

	rendertemplate "github.com/goliatone/go-admingen/pkg/render/template"
)

// Action is a quick action attached to a page: anything that can render
// itself to markup given the page's template engine.
type Action interface {
	RenderMarkup(templates rendertemplate.TemplateRenderer) (string, error)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(templates rendertemplate.TemplateRenderer) (string, error)

func (f ActionFunc) RenderMarkup(templates rendertemplate.TemplateRenderer) (string, error) {
	return f(templates)
}

// Link is an action rendering as a plain anchor.
type Link struct {
	Label string
	URL   string
	Class string
}

func (l Link) RenderMarkup(templates rendertemplate.TemplateRenderer) (string, error) {
	if strings.TrimSpace(l.Label) == "" || strings.TrimSpace(l.URL) == "" {
		return "", fmt.Errorf("page: link action needs label and url")
	}
	return templates.Render("templates/action_link", map[string]any{
		"label": l.Label,
		"url":   l.URL,
		"class": l.Class,
	})
}

// Search is an action rendering as a small GET search form.
type Search struct {
	URL         string
	Param       string
	Placeholder string
	Query       string
}

func (s Search) RenderMarkup(templates rendertemplate.TemplateRenderer) (string, error) {
	if strings.TrimSpace(s.URL) == "" {
		return "", fmt.Errorf("page: search action needs a target url")
	}
	param := s.Param
	if param == "" {
		param = "q"
	}
	return templates.Render("templates/action_search", map[string]any{
		"url":         s.URL,
		"param":       param,
		"placeholder": s.Placeholder,
		"query":       s.Query,
	})
}

// Breadcrumb is a (title, URL) pair in the page's trail.
type Breadcrumb struct {
	Title string
	URL   string
}
