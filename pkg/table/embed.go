package table

import (
	"embed"
	"io/fs"
)

//go:embed templates/cells/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded cell template bundle so callers can reuse
// or extend the built-in cell rendering.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
