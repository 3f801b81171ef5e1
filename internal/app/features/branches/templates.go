// internal/app/features/branches/templates.go
package branches

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "branches",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
