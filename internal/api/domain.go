package api

import (
	"github.com/mwhitford/attest/internal/categorizations"
	"github.com/mwhitford/attest/internal/documents"
	"github.com/mwhitford/attest/internal/prompts"
	"github.com/mwhitford/attest/internal/testsuites"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Categorizations categorizations.System
	Documents       documents.System
	Prompts         prompts.System
	TestSuites      testsuites.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	docsSystem := documents.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	categorizationsSystem := categorizations.New(
		runtime.Database.Connection(),
		runtime.Compliance,
		runtime.Logger,
		runtime.Pagination,
		docsSystem,
	)

	testSuitesSystem := testsuites.New(
		runtime.Database.Connection(),
		runtime.Agent,
		runtime.Logger,
		runtime.Pagination,
		docsSystem,
		categorizationsSystem,
		promptsSystem,
	)

	return &Domain{
		Categorizations: categorizationsSystem,
		Documents:       docsSystem,
		Prompts:         promptsSystem,
		TestSuites:      testSuitesSystem,
	}
}
