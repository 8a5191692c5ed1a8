package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/resumeforge/internal/model"
)

// KeyedLimiter spaces out calls sharing a key by at least minDelay.
// Concurrent callers each reserve their own slot, so N waiters on one key
// are released minDelay apart.
type KeyedLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time
	minDelay time.Duration
	now      func() time.Time
}

// NewKeyedLimiter creates a limiter enforcing minDelay between calls per key.
func NewKeyedLimiter(minDelay time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
		now:      time.Now,
	}
}

// Wait blocks until the caller's slot for key arrives. If ctx ends first the
// reserved slot is not given back.
func (l *KeyedLimiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	now := l.now()
	slot := now
	if n, ok := l.next[key]; ok && n.After(now) {
		slot = n
	}
	l.next[key] = slot.Add(l.minDelay)
	l.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-timer.C:
		return nil
	}
}

var _ model.TextGenerator = (*RateLimitedGenerator)(nil)

// RateLimitedGenerator waits on a shared limiter before each completion.
// Generators hitting the same model should share one limiter and key.
type RateLimitedGenerator struct {
	inner   model.TextGenerator
	limiter *KeyedLimiter
	key     string
}

func NewRateLimitedGenerator(inner model.TextGenerator, limiter *KeyedLimiter, key string) *RateLimitedGenerator {
	return &RateLimitedGenerator{inner: inner, limiter: limiter, key: key}
}

func (g *RateLimitedGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx, g.key); err != nil {
		return "", err
	}
	return g.inner.Complete(ctx, prompt)
}
