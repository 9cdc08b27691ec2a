// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mwhitford/attest/internal/config"
	"github.com/mwhitford/attest/internal/infrastructure"
	"github.com/mwhitford/attest/pkg/middleware"
	"github.com/mwhitford/attest/pkg/module"
	"github.com/mwhitford/attest/pkg/openapi"
)

// NewModule creates the API module with all domain handlers and middleware.
// When auth is enabled, every API route requires a verified bearer token
// so recorded validation identities are attributable.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	specBytes, err := buildSpec(cfg)
	if err != nil {
		return nil, fmt.Errorf("build openapi spec: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	verifier, err := middleware.NewVerifier(ctx, &cfg.Auth)
	if err != nil {
		return nil, err
	}
	if verifier != nil {
		m.Use(middleware.Auth(verifier, runtime.Infrastructure.Logger))
	}

	return m, nil
}
