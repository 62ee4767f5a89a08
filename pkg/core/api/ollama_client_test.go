// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("expected path /api/chat, got %q", r.URL.Path)
		}

		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "qwen2.5:7b" {
			t.Errorf("expected model 'qwen2.5:7b', got %q", req.Model)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.Options.NumPredict != 256 {
			t.Errorf("expected num_predict 256, got %d", req.Options.NumPredict)
		}
		if req.Options.Temperature != 0.7 {
			t.Errorf("expected temperature 0.7, got %v", req.Options.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "hi there"},
			Done:    true,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, "qwen2.5:7b", 0.7)

	text, err := client.Generate(context.Background(), "hello", 256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hi there" {
		t.Errorf("expected 'hi there', got %q", text)
	}
}

func TestOllamaClient_GenerateError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, "missing", 0.7)

	_, err := client.Generate(context.Background(), "hello", 256)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GenerationError, got %T", err)
	}
	if ge.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", ge.Provider)
	}
}
