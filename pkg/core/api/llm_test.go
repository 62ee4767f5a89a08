// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"testing"

	"github.com/searchchat/searchchat-gw/pkg/core/config"
)

func TestNewGenerationClient(t *testing.T) {
	cases := []struct {
		name         string
		cfg          config.GenerationConfig
		wantProvider string
		wantErr      bool
	}{
		{
			name:         "openai with key",
			cfg:          config.GenerationConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"},
			wantProvider: "openai",
		},
		{
			name:    "openai without key",
			cfg:     config.GenerationConfig{Provider: "openai", Model: "gpt-4o-mini"},
			wantErr: true,
		},
		{
			name:         "ollama",
			cfg:          config.GenerationConfig{Provider: "ollama", OllamaBaseURL: "http://localhost:11434", Model: "qwen2.5:7b"},
			wantProvider: "ollama",
		},
		{
			name:    "unknown selector",
			cfg:     config.GenerationConfig{Provider: "bedrock"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewGenerationClient(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var ce *config.ConfigurationError
				if !errors.As(err, &ce) {
					t.Errorf("expected *config.ConfigurationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.Provider() != tc.wantProvider {
				t.Errorf("expected provider %q, got %q", tc.wantProvider, client.Provider())
			}
		})
	}
}
