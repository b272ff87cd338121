// Command admingen-init interactively scaffolds a declarations file for a
// new admin site: it prompts for models and columns and writes the YAML the
// declarations package consumes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-admingen/pkg/declarations"
)

func main() {
	output := flag.String("output", "admin.yaml", "declarations file to write")
	flag.Parse()

	doc, err := prompt()
	if err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			fmt.Println("Aborted.")
			os.Exit(1)
		}
		log.Fatalf("Failed to collect declarations: %v", err)
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		log.Fatalf("Failed to encode declarations: %v", err)
	}

	if _, err := os.Stat(*output); err == nil {
		overwrite := false
		confirm := &survey.Confirm{Message: fmt.Sprintf("%s exists. Overwrite?", *output)}
		if err := survey.AskOne(confirm, &overwrite); err != nil {
			log.Fatalf("Failed to confirm overwrite: %v", err)
		}
		if !overwrite {
			fmt.Println("Aborted.")
			os.Exit(1)
		}
	}

	if err := os.WriteFile(*output, raw, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	fmt.Printf("Declarations written to %s\n", *output)
}

func prompt() (declarations.Document, error) {
	doc := declarations.Document{
		Models:       map[string]declarations.ModelConfig{},
		DefaultViews: true,
	}

	for {
		model, err := promptModel(len(doc.Models))
		if err != nil {
			return declarations.Document{}, err
		}
		if model == nil {
			break
		}
		name := model.name
		if _, exists := doc.Models[name]; exists {
			fmt.Printf("Model %q already declared, skipping.\n", name)
			continue
		}
		doc.Models[name] = model.config
	}

	if len(doc.Models) == 0 {
		return declarations.Document{}, fmt.Errorf("no models declared")
	}

	if err := survey.AskOne(&survey.Confirm{
		Message: "Declare the default list and detail routes?",
		Default: true,
	}, &doc.DefaultViews); err != nil {
		return declarations.Document{}, err
	}
	return doc, nil
}

type promptedModel struct {
	name   string
	config declarations.ModelConfig
}

// promptModel collects one model; a blank name on any model after the first
// ends the loop with nil.
func promptModel(declared int) (*promptedModel, error) {
	var name string
	message := "Model name:"
	if declared > 0 {
		message = "Next model name (blank to finish):"
	}
	if err := survey.AskOne(&survey.Input{Message: message}, &name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		if declared > 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("model name is required")
	}

	answers := struct {
		Label    string
		Columns  string
		IDColumn string
	}{}
	questions := []*survey.Question{
		{
			Name:   "label",
			Prompt: &survey.Input{Message: "Display label:", Default: titleCase(name)},
		},
		{
			Name:     "columns",
			Prompt:   &survey.Input{Message: "Columns (comma separated):", Default: "id, name"},
			Validate: survey.Required,
		},
		{
			Name:   "idcolumn",
			Prompt: &survey.Input{Message: "ID column:", Default: "id"},
		},
	}
	if err := survey.Ask(questions, &answers); err != nil {
		return nil, err
	}

	columns := splitColumns(answers.Columns)
	if len(columns) == 0 {
		return nil, fmt.Errorf("model %q needs at least one column", name)
	}

	return &promptedModel{
		name: name,
		config: declarations.ModelConfig{
			Label:    strings.TrimSpace(answers.Label),
			IDColumn: strings.TrimSpace(answers.IDColumn),
			Columns:  columns,
		},
	}, nil
}

func titleCase(name string) string {
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	columns := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			columns = append(columns, trimmed)
		}
	}
	return columns
}
