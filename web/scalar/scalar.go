// Package scalar serves the embedded Scalar API reference UI for the
// Attest OpenAPI document.
package scalar

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/mwhitford/attest/pkg/module"
	"github.com/mwhitford/attest/pkg/web"
)

//go:embed index.html assets
var staticFS embed.FS

// NewModule creates a module that serves the API reference UI at basePath,
// rendered against the OpenAPI document at specURL.
func NewModule(basePath, specURL string) *module.Module {
	return module.New(basePath, buildRouter(basePath, specURL))
}

func buildRouter(basePath, specURL string) http.Handler {
	router := web.NewRouter()

	tmpl := template.Must(template.ParseFS(staticFS, "index.html"))
	index := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		tmpl.Execute(w, map[string]string{
			"BasePath": basePath,
			"SpecURL":  specURL,
		})
	}

	router.HandleFunc("GET /{$}", index)
	for _, rt := range web.PublicFileRoutes(staticFS, "assets", "scalar.css", "scalar.js") {
		router.HandleFunc(rt.Method+" "+rt.Pattern, rt.Handler)
	}

	// unmatched paths under the UI prefix render the reference page
	router.SetFallback(index)

	return router
}
