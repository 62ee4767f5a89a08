// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/searchchat/searchchat-gw/pkg/core/engine"
	"github.com/searchchat/searchchat-gw/pkg/observability/logging"
	"github.com/searchchat/searchchat-gw/pkg/storage/memory"
	"github.com/searchchat/searchchat-gw/pkg/websearch"
)

type stubSearcher struct {
	records []map[string]any
	err     error
}

func (s *stubSearcher) SearchAsRecords(_ context.Context, _ string) ([]map[string]any, error) {
	return s.records, s.err
}

type stubTurns struct {
	result *engine.TurnResult
	err    error
	last   *engine.TurnRequest
}

func (s *stubTurns) ProcessTurn(_ context.Context, req *engine.TurnRequest) (*engine.TurnResult, error) {
	s.last = req
	return s.result, s.err
}

func TestHandleHealth(t *testing.T) {
	h := New(&stubSearcher{}, &stubTurns{}, memory.New(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestHandleSearch_DropsScore(t *testing.T) {
	search := &stubSearcher{records: []map[string]any{
		{"title": "Rover Update", "url": "https://x", "snippet": "New findings", "score": 0.8},
	}}
	h := New(search, &stubTurns{}, memory.New(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"query":"latest Mars rover news"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body []map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("expected 1 record, got %d", len(body))
	}
	if body[0]["title"] != "Rover Update" || body[0]["url"] != "https://x" || body[0]["snippet"] != "New findings" {
		t.Errorf("unexpected record: %v", body[0])
	}
	if _, ok := body[0]["score"]; ok {
		t.Error("score must not cross the ingress boundary")
	}
}

func TestHandleSearch_Error(t *testing.T) {
	search := &stubSearcher{err: &websearch.OrchestratorError{
		Err: &websearch.SearchError{Provider: "brave", StatusCode: 502, Body: "bad gateway"},
	}}
	h := New(search, &stubTurns{}, memory.New(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"query":"q"}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] == "" {
		t.Error("expected error field")
	}
	// Without debug logging the cause stays out of the response.
	if _, ok := body["trace"]; ok {
		t.Errorf("expected no trace field, got %q", body["trace"])
	}
}

func TestHandleSearch_ErrorTraceWithDebugLogging(t *testing.T) {
	search := &stubSearcher{err: &websearch.OrchestratorError{
		Err: &websearch.SearchError{Provider: "brave", StatusCode: 502, Body: "bad gateway"},
	}}
	logger := logging.New(logging.Config{Level: "debug", Format: "text", Output: io.Discard})
	h := New(search, &stubTurns{}, memory.New(), logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"query":"q"}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if !strings.Contains(body["trace"], "502") {
		t.Errorf("expected cause in trace under debug logging, got %q", body["trace"])
	}
}

func TestHandleSearch_BadBody(t *testing.T) {
	h := New(&stubSearcher{}, &stubTurns{}, memory.New(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("{")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleChat(t *testing.T) {
	score := 0.8
	turns := &stubTurns{result: &engine.TurnResult{
		Answer: "the answer [1]",
		Sources: []websearch.SearchResult{
			{Title: "Rover Update", URL: "https://x", Snippet: "New findings", Score: &score},
		},
		ConversationID: "conv_1",
	}}
	h := New(&stubSearcher{}, turns, memory.New(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"query":"latest Mars rover news","max_tokens":512}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if turns.last == nil || !turns.last.UseSearch {
		t.Error("expected search on by default")
	}
	if turns.last.MaxTokens != 512 {
		t.Errorf("expected max_tokens 512, got %d", turns.last.MaxTokens)
	}

	var body chatResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Answer != "the answer [1]" {
		t.Errorf("unexpected answer: %q", body.Answer)
	}
	if len(body.Sources) != 1 || body.Sources[0]["title"] != "Rover Update" {
		t.Errorf("unexpected sources: %v", body.Sources)
	}
	// Chat responses keep the score; only /search drops it.
	if body.Sources[0]["score"] != 0.8 {
		t.Errorf("expected score 0.8, got %v", body.Sources[0]["score"])
	}
}

func TestHandleChat_SearchDisabled(t *testing.T) {
	turns := &stubTurns{result: &engine.TurnResult{Answer: "plain"}}
	h := New(&stubSearcher{}, turns, memory.New(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"query":"q","use_search":false}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if turns.last.UseSearch {
		t.Error("expected use_search false to pass through")
	}
}

func TestConversationEndpoints(t *testing.T) {
	store := memory.New()
	h := New(&stubSearcher{}, &stubTurns{}, store, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/conversations/none", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing conversation, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/conversations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for list, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/conversations/none", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for delete, got %d", rec.Code)
	}
}
