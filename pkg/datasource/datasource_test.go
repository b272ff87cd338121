package datasource_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingen/pkg/datasource"
)

func TestModels_RegisterAndResolve(t *testing.T) {
	registry := datasource.NewModels()

	model := datasource.Model{Name: "widget", IDColumn: "id", Columns: []string{"id", "name"}}
	if err := registry.Register(model); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	got, err := registry.ResolveModel("widget")
	if err != nil {
		t.Fatalf("ResolveModel() returned error: %v", err)
	}
	if diff := cmp.Diff(model, got); diff != "" {
		t.Fatalf("ResolveModel() mismatch (-want +got):\n%s", diff)
	}
}

func TestModels_Register_DefaultsIDColumn(t *testing.T) {
	registry := datasource.NewModels()

	if err := registry.Register(datasource.Model{Name: "widget", Columns: []string{"id", "name"}}); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	got, err := registry.ResolveModel("widget")
	if err != nil {
		t.Fatalf("ResolveModel() returned error: %v", err)
	}
	if got.IDColumn != "id" {
		t.Errorf("IDColumn = %q, want %q", got.IDColumn, "id")
	}
}

func TestModels_DuplicateRejected(t *testing.T) {
	registry := datasource.NewModels()
	model := datasource.Model{Name: "widget", IDColumn: "id", Columns: []string{"id"}}

	if err := registry.Register(model); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}
	if err := registry.Register(model); err == nil {
		t.Fatal("Register() should reject a duplicate model name")
	}
}

func TestModels_UnknownModel(t *testing.T) {
	registry := datasource.NewModels()

	_, err := registry.ResolveModel("ghost")
	var notFound *datasource.ModelNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("ResolveModel() error = %v, want ModelNotFoundError", err)
	}
	if notFound.Name != "ghost" {
		t.Errorf("error names %q, want %q", notFound.Name, "ghost")
	}
}

func TestMapRecord_FieldsSorted(t *testing.T) {
	record := datasource.MapRecord{"name": "x", "id": "1", "at": "now"}

	want := []string{"at", "id", "name"}
	if diff := cmp.Diff(want, record.Fields()); diff != "" {
		t.Fatalf("Fields() mismatch (-want +got):\n%s", diff)
	}
}
