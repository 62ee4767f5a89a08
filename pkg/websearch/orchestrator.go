// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"

	"github.com/searchchat/searchchat-gw/pkg/core/config"
	"github.com/searchchat/searchchat-gw/pkg/observability/logging"
)

// Selection is the outcome of the provider precedence rule.
type Selection int

const (
	SelectedNone Selection = iota
	SelectedBrave
	SelectedSearxng
)

// Select applies the provider precedence rule: Brave wins when its API
// key is set, even if SearXNG is also configured; SearXNG is used when
// only its base URL is set. The rule is evaluated exactly once, at
// orchestrator construction.
func Select(cfg config.SearchConfig) Selection {
	switch {
	case cfg.BraveAPIKey != "":
		return SelectedBrave
	case cfg.SearxngBaseURL != "":
		return SelectedSearxng
	default:
		return SelectedNone
	}
}

// OrchestratorError wraps a search failure when results must cross a
// transport boundary as plain data. It is the only error type the
// record-producing path exposes; the original cause stays reachable
// through Unwrap.
type OrchestratorError struct {
	Err error
}

func (e *OrchestratorError) Error() string { return "search error: " + e.Err.Error() }

func (e *OrchestratorError) Unwrap() error { return e.Err }

// Orchestrator owns exactly one search provider, chosen at construction
// and fixed for the process lifetime. It is safe for concurrent use: all
// state is read-only after construction.
type Orchestrator struct {
	client Provider
	logger *logging.Logger
}

// NewOrchestrator selects a provider from the configuration and wraps it
// with the retry layer. With neither vendor configured it fails with a
// ConfigurationError.
func NewOrchestrator(cfg config.SearchConfig, logger *logging.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	var p Provider
	switch Select(cfg) {
	case SelectedBrave:
		p = NewBraveProvider(cfg.BraveAPIKey, logger)
	case SelectedSearxng:
		p = NewSearxngProvider(cfg.SearxngBaseURL, logger)
	default:
		return nil, config.NewConfigurationError(
			"no search provider configured: set either BRAVE_API_KEY or SEARXNG_BASE_URL")
	}

	return &Orchestrator{
		client: NewRetryingClient(p, logger),
		logger: logger,
	}, nil
}

// Provider returns the name of the selected vendor.
func (o *Orchestrator) Provider() string { return o.client.Name() }

// Search runs a query through the selected provider and its retry layer.
// Failures surface as *SearchError; an empty slice is a valid outcome,
// not an error.
func (o *Orchestrator) Search(ctx context.Context, query string) ([]SearchResult, error) {
	results, err := o.client.Search(ctx, query)
	if err != nil {
		o.logger.Error("search failed",
			"provider", o.client.Name(),
			"query", query,
			"error", err)
		return nil, err
	}

	o.logger.Info("search completed",
		"provider", o.client.Name(),
		"query", query,
		"results", len(results))
	return results, nil
}

// SearchAsRecords runs a query and converts the results to plain
// key-value records for transport. Any underlying failure is wrapped in a
// single *OrchestratorError.
func (o *Orchestrator) SearchAsRecords(ctx context.Context, query string) ([]map[string]any, error) {
	results, err := o.Search(ctx, query)
	if err != nil {
		return nil, &OrchestratorError{Err: err}
	}

	records := make([]map[string]any, 0, len(results))
	for _, r := range results {
		records = append(records, r.Record())
	}
	return records, nil
}
