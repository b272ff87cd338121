package admingen

import (
	"io/fs"

	"github.com/goliatone/go-admingen/pkg/page"
	"github.com/goliatone/go-admingen/pkg/table"
)

// PageTemplatesFS exposes the built-in page shell templates so callers can
// reuse or extend them without importing the page package directly.
func PageTemplatesFS() fs.FS {
	return page.TemplatesFS()
}

// TableTemplatesFS exposes the built-in table and cell templates.
func TableTemplatesFS() fs.FS {
	return table.TemplatesFS()
}
