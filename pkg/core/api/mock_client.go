// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"sync"
)

// MockGenerationClient is a mock implementation for testing. It records
// the prompts it receives and generates predictable responses.
type MockGenerationClient struct {
	mu      sync.Mutex
	prompts []string

	// Response, when set, is returned verbatim. Err, when set, is
	// returned instead of a response.
	Response string
	Err      error
}

// NewMockGenerationClient creates a new mock client
func NewMockGenerationClient() *MockGenerationClient {
	return &MockGenerationClient{}
}

// Provider implements GenerationClient.Provider
func (m *MockGenerationClient) Provider() string { return "mock" }

// Generate implements GenerationClient.Generate
func (m *MockGenerationClient) Generate(_ context.Context, prompt string, _ int) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Prompts returns a copy of every prompt seen so far.
func (m *MockGenerationClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
