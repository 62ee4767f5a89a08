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

	"github.com/searchchat/searchchat-gw/pkg/observability/logging"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

func init() {
	Providers.Register("brave", func(_ context.Context, params map[string]string) (Provider, error) {
		apiKey := params["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("brave: api_key parameter is required")
		}
		return NewBraveProvider(apiKey, nil), nil
	})
}

// BraveProvider performs web searches using the Brave Search API. Brave
// scores its results; the score travels through to the normalized form.
type BraveProvider struct {
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewBraveProvider creates a new Brave Search provider. A nil logger
// discards the per-item warnings.
func NewBraveProvider(apiKey string, logger *logging.Logger) *BraveProvider {
	if logger == nil {
		logger = logging.Nop()
	}
	return &BraveProvider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Name implements Provider.Name
func (b *BraveProvider) Name() string { return "brave" }

// Search queries the Brave Web Search API and returns normalized results,
// capped at MaxResults. Individual items that fail to decode are skipped
// with a warning; the remaining items are still returned.
func (b *BraveProvider) Search(ctx context.Context, query string) ([]SearchResult, error) {
	u, _ := url.Parse(braveEndpoint)
	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(MaxResults))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &SearchError{Provider: b.Name(), Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, newTransportError(b.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(b.Name(), fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &SearchError{Provider: b.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed braveSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &SearchError{Provider: b.Name(), Err: fmt.Errorf("parse response: %w", err)}
	}

	// The current API nests results under web.results; older responses
	// carry a top-level results array. Fall back only when the nested
	// structure is absent.
	items := parsed.Results
	if parsed.Web != nil && parsed.Web.Results != nil {
		items = parsed.Web.Results
	}

	results := make([]SearchResult, 0, len(items))
	for _, raw := range items {
		r, err := b.decodeItem(raw)
		if err != nil {
			b.logger.Warn("skipping malformed search result",
				"provider", b.Name(),
				"error", err)
			continue
		}
		results = append(results, r)
		if len(results) == MaxResults {
			break
		}
	}

	return results, nil
}

// decodeItem decodes one vendor result. The score field is tri-state:
// absent means no score, an explicit null becomes 0.0, and a number is
// passed through.
func (b *BraveProvider) decodeItem(raw json.RawMessage) (SearchResult, error) {
	var item braveResultItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{
		Title:   item.Title,
		URL:     item.URL,
		Snippet: item.Description,
	}

	if item.Score != nil {
		score := 0.0
		if string(item.Score) != "null" {
			if err := json.Unmarshal(item.Score, &score); err != nil {
				return SearchResult{}, fmt.Errorf("decode score: %w", err)
			}
		}
		result.Score = &score
	}

	return result, nil
}

type braveSearchResponse struct {
	Web *struct {
		Results []json.RawMessage `json:"results"`
	} `json:"web"`
	Results []json.RawMessage `json:"results"`
}

type braveResultItem struct {
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	Score       json.RawMessage `json:"score"`
}
