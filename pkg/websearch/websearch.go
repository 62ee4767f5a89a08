// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package websearch normalizes two structurally different web search
// vendors (Brave and SearXNG) into a single result shape, retries
// transient failures with backoff, and keeps vendor failures
// distinguishable from empty result sets.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/searchchat/searchchat-gw/pkg/provider"
)

// MaxResults is the hard cap on results returned per query, regardless of
// how many the vendor sends back.
const MaxResults = 5

// requestTimeout is the per-attempt budget for a vendor call.
const requestTimeout = 10 * time.Second

// SearchResult represents a single normalized web search result. Title,
// URL and Snippet are empty strings when the vendor omits them; Score is
// nil unless the vendor supplies one. Results are built fresh per query
// and never mutated or persisted.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
	Score   *float64
}

// Record converts the result to a plain key-value record for transport
// across a process boundary. The score key is present only when the
// vendor scored the result.
func (r SearchResult) Record() map[string]any {
	rec := map[string]any{
		"title":   r.Title,
		"url":     r.URL,
		"snippet": r.Snippet,
	}
	if r.Score != nil {
		rec["score"] = *r.Score
	}
	return rec
}

// Provider performs web searches against an external vendor. An empty
// query is sent to the vendor as a literal search term, never rejected
// locally.
type Provider interface {
	// Name identifies the vendor in errors and log events.
	Name() string
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Providers is the registry of search backends, keyed by vendor name.
var Providers = provider.NewRegistry[Provider]("websearch")

// SearchError describes a failed call to a search vendor. It carries the
// vendor identity and the cause: an upstream HTTP error status (with
// body), a timeout, or any other transport or decode failure. A vendor
// legitimately returning zero results is not a SearchError.
type SearchError struct {
	Provider   string
	StatusCode int    // non-zero when the vendor returned an error status
	Body       string // response body accompanying an error status
	Timeout    bool
	Err        error // transport or decode cause
}

func (e *SearchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: API error: %d - %s", e.Provider, e.StatusCode, e.Body)
	case e.Timeout:
		return fmt.Sprintf("%s: request timed out", e.Provider)
	default:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
}

func (e *SearchError) Unwrap() error { return e.Err }

// newTransportError classifies a failed round trip as a timeout or a
// generic transport failure.
func newTransportError(providerName string, err error) *SearchError {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &SearchError{Provider: providerName, Timeout: true, Err: err}
	}
	return &SearchError{Provider: providerName, Err: err}
}
