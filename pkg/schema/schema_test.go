package schema_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingen/pkg/datasource"
	"github.com/goliatone/go-admingen/pkg/schema"
)

const sampleSpec = `
openapi: 3.0.3
info:
  title: Inventory API
  version: 1.0.0
paths: {}
components:
  schemas:
    Widget:
      type: object
      x-admin-label: Widgets
      properties:
        id:
          type: string
        name:
          type: string
        status:
          type: string
    AuditEntry:
      type: object
      x-admin-id: entry_id
      properties:
        entry_id:
          type: string
        actor:
          type: string
        at:
          type: string
    Internal:
      type: object
      x-admin-ignore: true
      properties:
        secret:
          type: string
    Status:
      type: string
      enum: [active, archived]
`

func TestModels_ExtractsObjectSchemas(t *testing.T) {
	models, err := schema.Models(context.Background(), []byte(sampleSpec))
	if err != nil {
		t.Fatalf("Models() returned error: %v", err)
	}

	want := []datasource.Model{
		{Name: "auditentry", IDColumn: "entry_id", Columns: []string{"entry_id", "actor", "at"}},
		{Name: "widget", Label: "Widgets", IDColumn: "id", Columns: []string{"id", "name", "status"}},
	}
	if diff := cmp.Diff(want, models); diff != "" {
		t.Fatalf("Models() mismatch (-want +got):\n%s", diff)
	}
}

func TestModels_SkipsIgnoredAndScalarSchemas(t *testing.T) {
	models, err := schema.Models(context.Background(), []byte(sampleSpec))
	if err != nil {
		t.Fatalf("Models() returned error: %v", err)
	}
	for _, model := range models {
		if model.Name == "internal" || model.Name == "status" {
			t.Errorf("model %q should have been skipped", model.Name)
		}
	}
}

func TestModels_EmptyDocument(t *testing.T) {
	doc := []byte("openapi: 3.0.3\ninfo: {title: T, version: '1'}\npaths: {}\n")

	if _, err := schema.Models(context.Background(), doc); err == nil {
		t.Fatal("Models() should fail when no component schemas exist")
	}

	models, err := schema.Models(context.Background(), doc, schema.WithAllowEmpty())
	if err != nil {
		t.Fatalf("Models() with WithAllowEmpty returned error: %v", err)
	}
	if len(models) != 0 {
		t.Fatalf("Models() = %v, want none", models)
	}
}

func TestRegister_PopulatesRegistry(t *testing.T) {
	registry := datasource.NewModels()

	if _, err := schema.Register(context.Background(), registry, []byte(sampleSpec)); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	model, err := registry.ResolveModel("widget")
	if err != nil {
		t.Fatalf("ResolveModel(widget) returned error: %v", err)
	}
	if model.IDColumn != "id" {
		t.Errorf("IDColumn = %q, want %q", model.IDColumn, "id")
	}
}
