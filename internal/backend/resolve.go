package backend

import (
	"context"
	"time"

	"github.com/Schrodinger0/codex-flow-sub001/internal/config"
)

// reachProbeTimeout bounds the Ollama liveness probe during resolution.
const reachProbeTimeout = 500 * time.Millisecond

// Resolve picks the highest-priority backend available under the given
// configuration. Priority order: Anthropic API, AWS Bedrock, local Ollama,
// then the command-line executor. Returns ErrNoBackend when nothing is
// configured.
func Resolve(ctx context.Context, cfg config.BackendsConfig) (Generator, error) {
	if b, err := NewAnthropic(AnthropicConfig{APIKey: cfg.AnthropicAPIKey, Model: cfg.AnthropicModel}); err == nil {
		return b, nil
	}

	if cfg.AWSRegion != "" {
		if b, err := NewBedrock(AnthropicConfig{
			Model:      cfg.AnthropicModel,
			AWSRegion:  cfg.AWSRegion,
			AWSProfile: cfg.AWSProfile,
		}); err == nil {
			return b, nil
		}
	}

	if cfg.OllamaURL != "" {
		b := NewOllama(cfg.OllamaURL, cfg.OllamaModel)
		if b.Reachable(ctx, reachProbeTimeout) {
			return b, nil
		}
	}

	if cfg.CLICommand != "" {
		return NewCLI(cfg.CLICommand), nil
	}

	return nil, ErrNoBackend
}
