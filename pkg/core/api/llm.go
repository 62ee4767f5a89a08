// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"

	"github.com/searchchat/searchchat-gw/pkg/core/config"
)

// GenerationClient turns a prompt into a natural-language response. The
// backend is fixed at startup; there is no fallback chain and no retry
// layer in front of it.
type GenerationClient interface {
	// Provider identifies the backend in errors and log events.
	Provider() string

	// Generate produces a completion for the prompt, bounded by maxTokens.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// GenerationError describes a failed call to a generation backend. Every
// transport or decode failure surfaces as this one type, carrying the
// backend identity.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationClient builds the generation backend selected by the
// configuration. The selection is explicit: an unknown selector is a
// ConfigurationError, never a silent fallback. cfg.Validate() is expected
// to have run, but the key check is repeated here so an isolated
// construction still fails loudly.
func NewGenerationClient(cfg config.GenerationConfig) (GenerationClient, error) {
	switch cfg.Provider {
	case config.GenerationOpenAI:
		if cfg.APIKey == "" {
			return nil, config.NewConfigurationError("OPENAI_API_KEY is required when using the openai provider")
		}
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Temperature), nil
	case config.GenerationOllama:
		return NewOllamaClient(cfg.OllamaBaseURL, cfg.Model, cfg.Temperature), nil
	default:
		return nil, config.NewConfigurationError("unknown generation provider %q", cfg.Provider)
	}
}
