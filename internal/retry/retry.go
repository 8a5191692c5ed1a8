package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/resumeforge/internal/model"
)

var _ model.TextGenerator = (*RetryGenerator)(nil)

// RetryGenerator wraps a TextGenerator and retries transient completion
// failures with exponential backoff and jitter.
type RetryGenerator struct {
	inner      model.TextGenerator
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryGenerator wraps inner with retry logic. maxRetries counts the attempts
// made after the first failure; baseDelay doubles on each retry.
func NewRetryGenerator(inner model.TextGenerator, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryGenerator {
	return &RetryGenerator{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Complete calls the wrapped generator, retrying 429, 5xx and network errors.
func (g *RetryGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			delay := g.backoffDelay(attempt, lastErr)
			g.logger.Warn("retrying completion",
				"attempt", attempt,
				"max_retries", g.maxRetries,
				"delay", delay,
				"error", lastErr,
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-timer.C:
			}
		}

		text, err := g.inner.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if !isRetryable(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("giving up after %d retries: %w", g.maxRetries, lastErr)
}

// backoffDelay returns baseDelay*2^(attempt-1) with ±30% jitter. A Retry-After
// hint on the error wins.
func (g *RetryGenerator) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := g.baseDelay << (attempt - 1)
	jitter := (rand.Float64()*2 - 1) * 0.3 * float64(delay)
	return delay + time.Duration(jitter)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	// Transport failures (DNS, connection reset) have no status.
	return true
}
