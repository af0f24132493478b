package refagent

import (
	"fmt"

	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/simcontract"
)

// Config is the provider selection and credentials for one agent instance.
type Config struct {
	Provider    string // "anthropic" or "openai"
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// New builds a concrete simcontract.Agent for the given provider. cfg is
// shared across every agent in a scenario; each agent config in
// model.AgentConfig only affects the simulator side, not the LLM backend.
func New(cfg Config, _ model.AgentConfig) (simcontract.Agent, error) {
	switch cfg.Provider {
	case "anthropic":
		return newAgent(newAnthropicProvider(cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature)), nil
	case "openai":
		return newAgent(newOpenAIProvider(cfg.APIKey, cfg.Model, cfg.MaxTokens, float32(cfg.Temperature))), nil
	default:
		return nil, fmt.Errorf("refagent: unknown provider %q", cfg.Provider)
	}
}
