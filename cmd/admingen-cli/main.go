// Command admingen-cli renders a single admin page to stdout or a file,
// useful for previewing declarations and templates without running a server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"

	admingen "github.com/goliatone/go-admingen"
	"github.com/goliatone/go-admingen/pkg/datasource"
	"github.com/goliatone/go-admingen/pkg/datasource/memory"
	"github.com/goliatone/go-admingen/pkg/declarations"
	"github.com/goliatone/go-admingen/pkg/schema"
)

func main() {
	decls := flag.String("declarations", "", "directory of declaration files (JSON/YAML)")
	spec := flag.String("schema", "", "OpenAPI document to derive models from")
	data := flag.String("data", "", "JSON file mapping model names to rows")
	model := flag.String("model", "", "model to render")
	id := flag.String("id", "", "record id; renders the detail page instead of the list")
	page := flag.Int("page", 1, "list page number")
	defaults := flag.Bool("default-views", true, "declare the default list/detail routes (disable when declarations already do)")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	if *model == "" {
		log.Fatal("missing required flag: -model")
	}

	ctx := context.Background()

	store := memory.New()
	site, err := admingen.New(store)
	if err != nil {
		log.Fatalf("Failed to build site: %v", err)
	}

	if *spec != "" {
		raw, err := os.ReadFile(*spec)
		if err != nil {
			log.Fatalf("Failed to read schema: %v", err)
		}
		registry := datasource.NewModels()
		if _, err := schema.Register(ctx, registry, raw); err != nil {
			log.Fatalf("Failed to derive models: %v", err)
		}
		for _, name := range registry.Names() {
			derived, _ := registry.ResolveModel(name)
			if err := site.DeclareModel(derived); err != nil {
				log.Fatalf("Failed to declare model %q: %v", name, err)
			}
		}
	}

	if *decls != "" {
		if err := declarations.ApplyFS(site, os.DirFS(*decls)); err != nil {
			log.Fatalf("Failed to apply declarations: %v", err)
		}
	}
	if *defaults {
		if err := site.DeclareDefaultViews(); err != nil {
			log.Fatalf("Failed to declare default views: %v", err)
		}
	}

	if *data != "" {
		if err := loadRows(store, *data); err != nil {
			log.Fatalf("Failed to load data: %v", err)
		}
	}

	target := site.BasePath() + "/" + *model
	if *id != "" {
		target += "/" + *id
	} else if *page > 1 {
		target += fmt.Sprintf("?page=%d", *page)
	}

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		log.Fatalf("Render failed with status %d: %s", rec.Code, rec.Body.String())
	}

	if *output != "" {
		if err := os.WriteFile(*output, rec.Body.Bytes(), 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Page written to %s\n", *output)
	} else {
		fmt.Println(rec.Body.String())
	}
}

// loadRows reads a JSON object mapping model names to arrays of rows.
func loadRows(store *memory.Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var byModel map[string][]datasource.MapRecord
	if err := json.Unmarshal(raw, &byModel); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for name, rows := range byModel {
		store.Insert(name, rows...)
	}
	return nil
}
