package workflow

import (
	"log/slog"

	"github.com/mwhitford/attest/internal/documents"
	"github.com/mwhitford/attest/internal/prompts"
	"github.com/mwhitford/attest/pkg/compliance"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure
// and Domain systems. The categorization graph uses Documents and
// Compliance; the generation graph additionally uses Agent and Prompts.
type Runtime struct {
	Agent      gaconfig.AgentConfig
	Documents  documents.System
	Prompts    prompts.System
	Compliance compliance.Config
	Logger     *slog.Logger
}
