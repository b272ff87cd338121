package page

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded page shell and content templates.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
