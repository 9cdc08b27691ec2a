package api

import (
	"net/http"

	"github.com/mwhitford/attest/internal/config"
	"github.com/mwhitford/attest/pkg/routes"
	"github.com/mwhitford/attest/pkg/storage"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Categorizations.Handler().Routes(),
		domain.TestSuites.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger, storage.MaxListCap).routes(),
	)
}
