// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient implements GenerationClient using the official OpenAI Go
// SDK. A custom base URL connects it to any OpenAI-compatible backend
// (vLLM, LiteLLM, and so on).
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAIClient creates a new OpenAI-compatible generation client.
func NewOpenAIClient(baseURL, apiKey, model string, temperature float64) *OpenAIClient {
	opts := []option.RequestOption{}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		// Local OpenAI-compatible backends accept any key.
		opts = append(opts, option.WithAPIKey("dummy"))
	}

	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
	}
}

// Provider implements GenerationClient.Provider
func (c *OpenAIClient) Provider() string { return "openai" }

// Generate sends a single-turn chat completion and returns the first
// choice's content.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", &GenerationError{Provider: c.Provider(), Err: err}
	}
	if len(completion.Choices) == 0 {
		return "", &GenerationError{Provider: c.Provider(), Err: errors.New("response contained no choices")}
	}
	return completion.Choices[0].Message.Content, nil
}
