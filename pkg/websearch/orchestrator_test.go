// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/searchchat/searchchat-gw/pkg/core/config"
)

func TestSelect(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.SearchConfig
		want Selection
	}{
		{"neither", config.SearchConfig{}, SelectedNone},
		{"brave only", config.SearchConfig{BraveAPIKey: "k"}, SelectedBrave},
		{"searxng only", config.SearchConfig{SearxngBaseURL: "http://sx"}, SelectedSearxng},
		{"both prefers brave", config.SearchConfig{BraveAPIKey: "k", SearxngBaseURL: "http://sx"}, SelectedBrave},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Select(tc.cfg); got != tc.want {
				t.Errorf("Select() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewOrchestrator_Unconfigured(t *testing.T) {
	_, err := NewOrchestrator(config.SearchConfig{}, nil)
	if err == nil {
		t.Fatal("expected error with no provider configured")
	}
	var ce *config.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *config.ConfigurationError, got %T", err)
	}
}

func TestNewOrchestrator_BravePrecedence(t *testing.T) {
	o, err := NewOrchestrator(config.SearchConfig{
		BraveAPIKey:    "k",
		SearxngBaseURL: "http://sx.example",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Provider() != "brave" {
		t.Errorf("expected brave selected, got %q", o.Provider())
	}
}

func TestOrchestrator_SearchAsRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"title":"Rover Update","url":"https://x","content":"New findings"}
		]}`))
	}))
	defer server.Close()

	o, err := NewOrchestrator(config.SearchConfig{SearxngBaseURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := o.SearchAsRecords(context.Background(), "latest Mars rover news")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec["title"] != "Rover Update" || rec["url"] != "https://x" || rec["snippet"] != "New findings" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestOrchestrator_SearchAsRecords_WrapsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	o, err := NewOrchestrator(config.SearchConfig{SearxngBaseURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Skip the real backoff sleeps.
	o.client.(*RetryingClient).sleep = func(d time.Duration) {}

	_, err = o.SearchAsRecords(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	var oe *OrchestratorError
	if !errors.As(err, &oe) {
		t.Fatalf("expected *OrchestratorError, got %T", err)
	}
	var se *SearchError
	if !errors.As(err, &se) {
		t.Fatal("expected the original SearchError to stay reachable")
	}
	if se.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", se.StatusCode)
	}
}

func TestOrchestrator_ZeroResultsIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	o, err := NewOrchestrator(config.SearchConfig{SearxngBaseURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := o.SearchAsRecords(context.Background(), "q")
	if err != nil {
		t.Fatalf("zero results must not be an error, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records, got %d", len(records))
	}
}
