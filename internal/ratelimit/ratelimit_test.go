package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWait_SameKeyEnforcesMinDelay(t *testing.T) {
	limiter := NewKeyedLimiter(100 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "gpt-4o-mini"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "gpt-4o-mini"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentKeysDoNotBlock(t *testing.T) {
	limiter := NewKeyedLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "a"); err != nil {
		t.Fatalf("wait a: %v", err)
	}
	start := time.Now()
	if err := limiter.Wait(ctx, "b"); err != nil {
		t.Fatalf("wait b: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected near-instant wait for another key, got %v", elapsed)
	}
}

func TestWait_ConcurrentCallersAreSpaced(t *testing.T) {
	limiter := NewKeyedLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(ctx, "m"); err != nil {
				t.Errorf("wait: %v", err)
			}
		}()
	}
	wg.Wait()

	// Four callers occupy slots at 0, 50, 100, 150ms.
	if elapsed := time.Since(start); elapsed < 130*time.Millisecond {
		t.Errorf("expected >= 130ms for 4 spaced callers, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewKeyedLimiter(5 * time.Second)
	if err := limiter.Wait(context.Background(), "m"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(ctx, "m"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

type recordingGenerator struct {
	calls int
}

func (g *recordingGenerator) Complete(_ context.Context, _ string) (string, error) {
	g.calls++
	return "ok", nil
}

func TestRateLimitedGenerator_WaitsBeforeDelegating(t *testing.T) {
	inner := &recordingGenerator{}
	gen := NewRateLimitedGenerator(inner, NewKeyedLimiter(100*time.Millisecond), "m")
	ctx := context.Background()

	if _, err := gen.Complete(ctx, "p"); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	start := time.Now()
	if _, err := gen.Complete(ctx, "p"); err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second call, got %v", elapsed)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls)
	}
}
