// Package schema derives admin model declarations from an OpenAPI document.
// Each component schema of type object becomes a datasource.Model, so an
// existing API description can seed an admin site without hand-written model
// declarations.
package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-admingen/pkg/datasource"
)

// Extension keys honoured on component schemas.
const (
	// extID overrides the id column ("id" by default, else the first
	// required property).
	extID = "x-admin-id"
	// extLabel overrides the model label derived from the schema name.
	extLabel = "x-admin-label"
	// extIgnore excludes a component schema from model extraction.
	extIgnore = "x-admin-ignore"
)

// Option configures model extraction.
type Option func(*config)

type config struct {
	resolveReferences bool
	allowEmpty        bool
}

// WithResolvedReferences validates the document and resolves $ref targets
// before extraction.
func WithResolvedReferences() Option {
	return func(cfg *config) {
		cfg.resolveReferences = true
	}
}

// WithAllowEmpty makes extraction of a document without any usable component
// schemas succeed with an empty model list.
func WithAllowEmpty() Option {
	return func(cfg *config) {
		cfg.allowEmpty = true
	}
}

// Models extracts one datasource.Model per object-typed component schema,
// sorted by name. Property names become columns, with the id column first.
func Models(ctx context.Context, raw []byte, options ...Option) ([]datasource.Model, error) {
	if len(raw) == 0 {
		return nil, errors.New("schema: document payload is empty")
	}

	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: cfg.resolveReferences,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: load document: %w", err)
	}
	if cfg.resolveReferences {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("schema: validate: %w", err)
		}
	}

	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		if cfg.allowEmpty {
			return nil, nil
		}
		return nil, errors.New("schema: document declares no component schemas")
	}

	models := make([]datasource.Model, 0, len(spec.Components.Schemas))
	for name, ref := range spec.Components.Schemas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		model, ok := extractModel(name, ref)
		if !ok {
			continue
		}
		models = append(models, model)
	}
	if len(models) == 0 && !cfg.allowEmpty {
		return nil, errors.New("schema: no object schemas usable as models")
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// Register extracts models and registers every one of them.
func Register(ctx context.Context, registry *datasource.Models, raw []byte, options ...Option) ([]datasource.Model, error) {
	models, err := Models(ctx, raw, options...)
	if err != nil {
		return nil, err
	}
	for _, model := range models {
		if err := registry.Register(model); err != nil {
			return nil, err
		}
	}
	return models, nil
}

func extractModel(name string, ref *openapi3.SchemaRef) (datasource.Model, bool) {
	if ref == nil || ref.Value == nil {
		return datasource.Model{}, false
	}
	value := ref.Value
	// Schemas without an explicit type but with properties are treated as
	// objects, which is how they behave on the wire.
	if len(value.Properties) == 0 || (value.Type != nil && !value.Type.Is(openapi3.TypeObject)) {
		return datasource.Model{}, false
	}
	if flag, ok := value.Extensions[extIgnore].(bool); ok && flag {
		return datasource.Model{}, false
	}

	columns := make([]string, 0, len(value.Properties))
	for property := range value.Properties {
		columns = append(columns, property)
	}
	sort.Strings(columns)

	idColumn := idColumnFor(value, columns)
	ordered := make([]string, 0, len(columns))
	ordered = append(ordered, idColumn)
	for _, column := range columns {
		if column != idColumn {
			ordered = append(ordered, column)
		}
	}

	label := ""
	if raw, ok := value.Extensions[extLabel].(string); ok {
		label = raw
	}

	return datasource.Model{
		Name:     modelName(name),
		Label:    label,
		IDColumn: idColumn,
		Columns:  ordered,
	}, true
}

// idColumnFor prefers the x-admin-id extension, then an "id" property, then
// the first required property, then the first property.
func idColumnFor(value *openapi3.Schema, columns []string) string {
	if raw, ok := value.Extensions[extID].(string); ok && raw != "" {
		return raw
	}
	if _, ok := value.Properties["id"]; ok {
		return "id"
	}
	for _, required := range value.Required {
		if _, ok := value.Properties[required]; ok {
			return required
		}
	}
	return columns[0]
}

func modelName(schemaName string) string {
	return strings.ToLower(strings.ReplaceAll(schemaName, " ", "-"))
}
