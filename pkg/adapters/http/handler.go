// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/searchchat/searchchat-gw/pkg/core/engine"
	"github.com/searchchat/searchchat-gw/pkg/core/state"
	"github.com/searchchat/searchchat-gw/pkg/observability/logging"
)

// Searcher produces transport-ready search records. Implemented by
// websearch.Orchestrator.
type Searcher interface {
	SearchAsRecords(ctx context.Context, query string) ([]map[string]any, error)
}

// TurnProcessor runs one chat turn. Implemented by engine.Engine.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, req *engine.TurnRequest) (*engine.TurnResult, error)
}

// Handler implements the HTTP adapter
type Handler struct {
	search  Searcher
	turns   TurnProcessor
	history state.ConversationStore
	logger  *logging.Logger
	debug   bool
	mux     *http.ServeMux
}

// New creates a new HTTP handler
func New(search Searcher, turns TurnProcessor, history state.ConversationStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	h := &Handler{
		search:  search,
		turns:   turns,
		history: history,
		logger:  logger,
		debug:   logger.Enabled(context.Background(), slog.LevelDebug),
		mux:     http.NewServeMux(),
	}

	// Register routes
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("POST /search", h.handleSearch)
	h.mux.HandleFunc("POST /v1/chat", h.handleChat)
	h.mux.HandleFunc("GET /v1/conversations", h.handleListConversations)
	h.mux.HandleFunc("GET /v1/conversations/{id}", h.handleGetConversation)
	h.mux.HandleFunc("DELETE /v1/conversations/{id}", h.handleDeleteConversation)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	h.mux.ServeHTTP(w, r)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query string `json:"query"`
}

// handleSearch handles POST /search. The response records carry title,
// url and snippet only; the relevance score stays behind this boundary.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse search request", "error", err)
		h.writeError(w, http.StatusBadRequest, "failed to parse request body", nil)
		return
	}

	records, err := h.search.SearchAsRecords(r.Context(), req.Query)
	if err != nil {
		h.logger.Error("Search request failed", "query", req.Query, "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error(), errors.Unwrap(err))
		return
	}

	out := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]string{
			"title":   stringField(rec, "title"),
			"url":     stringField(rec, "url"),
			"snippet": stringField(rec, "snippet"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type chatRequest struct {
	Query          string `json:"query"`
	UseSearch      *bool  `json:"use_search"`
	MaxTokens      int    `json:"max_tokens"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	Answer         string           `json:"answer"`
	Sources        []map[string]any `json:"sources"`
	Degraded       bool             `json:"degraded"`
	ConversationID string           `json:"conversation_id"`
}

// handleChat handles POST /v1/chat. Search defaults to on; a client that
// wants a context-free answer sends use_search:false.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse chat request", "error", err)
		h.writeError(w, http.StatusBadRequest, "failed to parse request body", nil)
		return
	}

	useSearch := req.UseSearch == nil || *req.UseSearch

	result, err := h.turns.ProcessTurn(r.Context(), &engine.TurnRequest{
		Query:          req.Query,
		UseSearch:      useSearch,
		MaxTokens:      req.MaxTokens,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		h.logger.Error("Chat turn failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error(), errors.Unwrap(err))
		return
	}

	sources := make([]map[string]any, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, s.Record())
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Answer:         result.Answer,
		Sources:        sources,
		Degraded:       result.Degraded,
		ConversationID: result.ConversationID,
	})
}

// handleListConversations handles GET /v1/conversations
func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.history.ListConversations(r.Context())
	if err != nil {
		h.logger.Error("Failed to list conversations", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// handleGetConversation handles GET /v1/conversations/{id}
func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.history.GetConversation(r.Context(), r.PathValue("id"))
	if errors.Is(err, state.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		h.logger.Error("Failed to get conversation", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// handleDeleteConversation handles DELETE /v1/conversations/{id}
func (h *Handler) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.history.DeleteConversation(r.Context(), r.PathValue("id")); err != nil {
		h.logger.Error("Failed to delete conversation", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type errorBody struct {
	Error string `json:"error"`
	Trace string `json:"trace,omitempty"`
}

// writeError writes a structured error body. The cause becomes the
// trace field only when debug logging is enabled; production responses
// carry the message alone.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string, cause error) {
	body := errorBody{Error: message}
	if cause != nil && h.debug {
		body.Trace = cause.Error()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func stringField(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}
