// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/searchchat/searchchat-gw/pkg/observability/logging"
)

func init() {
	Providers.Register("searxng", func(_ context.Context, params map[string]string) (Provider, error) {
		baseURL := params["base_url"]
		if baseURL == "" {
			return nil, fmt.Errorf("searxng: base_url parameter is required")
		}
		return NewSearxngProvider(baseURL, nil), nil
	})
}

// SearxngProvider performs web searches against a self-hosted SearXNG
// instance. SearXNG results are unscored; Score is never populated.
type SearxngProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewSearxngProvider creates a new SearXNG provider for the given
// instance base URL. A nil logger discards the per-item warnings.
func NewSearxngProvider(baseURL string, logger *logging.Logger) *SearxngProvider {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SearxngProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Name implements Provider.Name
func (s *SearxngProvider) Name() string { return "searxng" }

// Search queries the SearXNG JSON API and returns normalized results,
// capped at MaxResults. Individual items that fail to decode are skipped
// with a warning; the remaining items are still returned.
func (s *SearxngProvider) Search(ctx context.Context, query string) ([]SearchResult, error) {
	u, err := url.Parse(s.baseURL + "/search")
	if err != nil {
		return nil, &SearchError{Provider: s.Name(), Err: fmt.Errorf("parse base url: %w", err)}
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("language", "en-US")
	q.Set("num", strconv.Itoa(MaxResults))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &SearchError{Provider: s.Name(), Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, newTransportError(s.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(s.Name(), fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &SearchError{Provider: s.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed searxngSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &SearchError{Provider: s.Name(), Err: fmt.Errorf("parse response: %w", err)}
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, raw := range parsed.Results {
		var item searxngResultItem
		if err := json.Unmarshal(raw, &item); err != nil {
			s.logger.Warn("skipping malformed search result",
				"provider", s.Name(),
				"error", err)
			continue
		}
		results = append(results, SearchResult{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Content,
		})
		if len(results) == MaxResults {
			break
		}
	}

	return results, nil
}

type searxngSearchResponse struct {
	Results []json.RawMessage `json:"results"`
}

type searxngResultItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}
