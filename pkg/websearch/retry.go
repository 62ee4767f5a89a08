// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"time"

	"github.com/searchchat/searchchat-gw/pkg/observability/logging"
)

// Retry configuration constants. Waits between the three attempts are 4s
// then 8s, both under the 10s cap.
const (
	maxAttempts       = 3
	initialBackoff    = 4 * time.Second
	maxBackoff        = 10 * time.Second
	backoffMultiplier = 2
)

// backoffFor returns the wait before retry number attempt (0-based).
func backoffFor(attempt int) time.Duration {
	backoff := initialBackoff
	for i := 0; i < attempt; i++ {
		backoff *= backoffMultiplier
		if backoff > maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// RetryingClient wraps a Provider with a bounded retry loop. All failures
// are retried uniformly: transport errors, timeouts and every HTTP error
// status alike, client errors included. On exhaustion the last failure is
// returned unchanged, never masked by an earlier one.
type RetryingClient struct {
	provider Provider
	logger   *logging.Logger
	sleep    func(time.Duration)
}

// NewRetryingClient wraps the given provider. A nil logger discards the
// retry warnings.
func NewRetryingClient(p Provider, logger *logging.Logger) *RetryingClient {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RetryingClient{
		provider: p,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// Name implements Provider.Name
func (c *RetryingClient) Name() string { return c.provider.Name() }

// Search implements Provider.Search with up to maxAttempts attempts.
// Context cancellation between attempts stops the loop with the context
// error; a cancelled turn is not a vendor failure.
func (c *RetryingClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			wait := backoffFor(attempt - 2)
			c.logger.Warn("search attempt failed, retrying",
				"provider", c.provider.Name(),
				"attempt", attempt-1,
				"backoff", wait,
				"error", lastErr)
			c.sleep(wait)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		results, err := c.provider.Search(ctx, query)
		if err == nil {
			return results, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
