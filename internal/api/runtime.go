package api

import (
	"github.com/mwhitford/attest/internal/config"
	"github.com/mwhitford/attest/internal/infrastructure"
	"github.com/mwhitford/attest/pkg/compliance"
	"github.com/mwhitford/attest/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Compliance compliance.Config
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Agent:     cfg.Agent.Build(),
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Compliance: cfg.Compliance,
		Pagination: cfg.API.Pagination,
	}
}
