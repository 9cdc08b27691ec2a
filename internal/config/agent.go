package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "ATTEST_AGENT_NAME"
	EnvAgentProviderName = "ATTEST_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "ATTEST_AGENT_BASE_URL"
	EnvAgentToken        = "ATTEST_AGENT_TOKEN"
	EnvAgentDeployment   = "ATTEST_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "ATTEST_AGENT_API_VERSION"
	EnvAgentAuthType     = "ATTEST_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "ATTEST_AGENT_MODEL_NAME"
)

// AgentConfig mirrors the go-agents agent configuration with TOML field
// mapping. Build converts the finalized values into the go-agents form
// consumed by the workflow runtime.
type AgentConfig struct {
	Name     string          `toml:"name"`
	Provider *ProviderConfig `toml:"provider"`
	Model    *ModelConfig    `toml:"model"`
}

type ProviderConfig struct {
	Name    string         `toml:"name"`
	BaseURL string         `toml:"base_url"`
	Options map[string]any `toml:"options"`
}

type ModelConfig struct {
	Name string `toml:"name"`
}

// Merge overwrites non-zero fields from overlay.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Provider != nil {
		if c.Provider == nil {
			c.Provider = &ProviderConfig{}
		}
		if overlay.Provider.Name != "" {
			c.Provider.Name = overlay.Provider.Name
		}
		if overlay.Provider.BaseURL != "" {
			c.Provider.BaseURL = overlay.Provider.BaseURL
		}
		for k, v := range overlay.Provider.Options {
			if c.Provider.Options == nil {
				c.Provider.Options = make(map[string]any)
			}
			c.Provider.Options[k] = v
		}
	}
	if overlay.Model != nil {
		if c.Model == nil {
			c.Model = &ModelConfig{}
		}
		if overlay.Model.Name != "" {
			c.Model.Name = overlay.Model.Name
		}
	}
}

// Finalize applies the three-phase finalize pattern: defaults,
// environment variable overrides, then validation.
func (c *AgentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *AgentConfig) loadDefaults() {
	if c.Name == "" {
		c.Name = "default-agent"
	}
	if c.Provider == nil {
		c.Provider = &ProviderConfig{}
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "ollama"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "http://localhost:11434"
	}
	if c.Model == nil {
		c.Model = &ModelConfig{}
	}
	if c.Model.Name == "" {
		c.Model.Name = "llama3.2"
	}
}

func (c *AgentConfig) loadEnv() {
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			if c.Provider.Options == nil {
				c.Provider.Options = make(map[string]any)
			}
			c.Provider.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")
}

func (c *AgentConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider == nil || c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == nil || c.Model.Name == "" {
		return fmt.Errorf("model name required")
	}
	return nil
}

// Build produces the go-agents configuration for agent construction.
func (c *AgentConfig) Build() gaconfig.AgentConfig {
	out := gaconfig.AgentConfig{Name: c.Name}
	if c.Provider != nil {
		out.Provider = &gaconfig.ProviderConfig{
			Name:    c.Provider.Name,
			BaseURL: c.Provider.BaseURL,
			Options: c.Provider.Options,
		}
	}
	if c.Model != nil {
		out.Model = &gaconfig.ModelConfig{Name: c.Model.Name}
	}
	return out
}
