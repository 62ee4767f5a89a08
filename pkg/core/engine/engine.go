// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/searchchat/searchchat-gw/pkg/core/api"
	"github.com/searchchat/searchchat-gw/pkg/core/prompt"
	"github.com/searchchat/searchchat-gw/pkg/core/state"
	"github.com/searchchat/searchchat-gw/pkg/observability/logging"
	"github.com/searchchat/searchchat-gw/pkg/websearch"
)

const defaultMaxTokens = 1024

// Searcher runs a web search through the configured vendor. Implemented
// by websearch.Orchestrator.
type Searcher interface {
	Provider() string
	Search(ctx context.Context, query string) ([]websearch.SearchResult, error)
}

// Engine drives one chat turn: an optional web search, prompt
// composition, then generation. All its fields are read-only after
// construction, so one Engine serves any number of concurrent turns;
// every turn's results and prompt are turn-local.
type Engine struct {
	search    Searcher
	generator api.GenerationClient
	history   state.ConversationStore
	logger    *logging.Logger
	maxTokens int
}

// New creates a new Engine instance.
func New(search Searcher, generator api.GenerationClient, history state.ConversationStore, logger *logging.Logger) (*Engine, error) {
	if generator == nil {
		return nil, fmt.Errorf("generation client is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{
		search:    search,
		generator: generator,
		history:   history,
		logger:    logger,
		maxTokens: defaultMaxTokens,
	}, nil
}

// TurnRequest describes one user turn.
type TurnRequest struct {
	Query          string
	UseSearch      bool
	MaxTokens      int
	ConversationID string
}

// TurnResult is the outcome of one turn. Degraded is set when search was
// requested but failed, and the answer was generated without context;
// zero sources with Degraded false means the search simply found nothing.
type TurnResult struct {
	Answer         string
	Sources        []websearch.SearchResult
	Degraded       bool
	ConversationID string
}

// ProcessTurn runs one chat turn. Search, when requested, always
// resolves before generation starts. A search failure degrades the turn
// to generation without context; a generation failure fails the turn.
func (e *Engine) ProcessTurn(ctx context.Context, req *TurnRequest) (*TurnResult, error) {
	result := &TurnResult{ConversationID: req.ConversationID}

	if req.UseSearch {
		if e.search == nil {
			return nil, fmt.Errorf("search requested but no search provider is configured")
		}
		sources, err := e.search.Search(ctx, req.Query)
		switch {
		case err == nil:
			result.Sources = sources
		case isSearchFailure(err):
			// Degrade, don't fail: the generator still gets the query.
			result.Degraded = true
			e.logger.Warn("search failed, answering without context",
				"provider", e.search.Provider(),
				"query", req.Query,
				"error", err)
		default:
			// Cancellation or other non-vendor failure.
			return nil, err
		}
	}

	var p string
	if len(result.Sources) > 0 {
		p = prompt.WithContext(req.Query, result.Sources)
	} else {
		p = prompt.Plain(req.Query)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = e.maxTokens
	}

	answer, err := e.generator.Generate(ctx, p, maxTokens)
	if err != nil {
		e.logger.Error("generation failed",
			"provider", e.generator.Provider(),
			"error", err)
		return nil, err
	}
	result.Answer = answer

	e.recordTurn(ctx, req, result)

	e.logger.Info("turn completed",
		"generation_provider", e.generator.Provider(),
		"sources", len(result.Sources),
		"degraded", result.Degraded)
	return result, nil
}

// Summarize generates a summary of the given text in at most
// maxSentences sentences.
func (e *Engine) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	return e.generator.Generate(ctx, prompt.Summarize(text, maxSentences), e.maxTokens)
}

// recordTurn appends the turn to conversation history. History failures
// are logged, never fatal to the turn.
func (e *Engine) recordTurn(ctx context.Context, req *TurnRequest, result *TurnResult) {
	now := time.Now().UTC()

	conv, err := e.history.GetConversation(ctx, result.ConversationID)
	if result.ConversationID == "" || errors.Is(err, state.ErrNotFound) {
		id := result.ConversationID
		if id == "" {
			id = newID("conv")
		}
		conv = &state.Conversation{ID: id, CreatedAt: now}
		result.ConversationID = id
	} else if err != nil {
		e.logger.Error("failed to load conversation", "error", err)
		return
	}

	conv.UpdatedAt = now
	conv.Messages = append(conv.Messages,
		state.Message{
			ID:        newID("msg"),
			Role:      "user",
			Content:   req.Query,
			CreatedAt: now,
		},
		state.Message{
			ID:          newID("msg"),
			Role:        "assistant",
			Content:     result.Answer,
			SourceCount: len(result.Sources),
			Degraded:    result.Degraded,
			CreatedAt:   now,
		})

	if err := e.history.SaveConversation(ctx, conv); err != nil {
		e.logger.Error("failed to save conversation", "error", err)
	}
}

// isSearchFailure reports whether err is a vendor failure rather than,
// say, a cancelled context. Vendor failures are the ones a turn may
// survive without context.
func isSearchFailure(err error) bool {
	var se *websearch.SearchError
	var oe *websearch.OrchestratorError
	return errors.As(err, &se) || errors.As(err, &oe)
}

// newID generates a prefixed random identifier.
func newID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return prefix + "_" + hex.EncodeToString(b)
}
