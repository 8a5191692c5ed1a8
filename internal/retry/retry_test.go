package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/resumeforge/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedGenerator returns the result of fn for each call, counting calls.
type scriptedGenerator struct {
	calls int
	fn    func(attempt int) (string, error)
}

func (s *scriptedGenerator) Complete(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.fn(s.calls)
}

func TestRetry_FirstAttemptSucceeds(t *testing.T) {
	gen := &scriptedGenerator{fn: func(int) (string, error) { return "ok", nil }}

	got, err := NewRetryGenerator(gen, 2, 10*time.Millisecond, discardLogger()).Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || gen.calls != 1 {
		t.Fatalf("got %q after %d calls, want ok after 1", got, gen.calls)
	}
}

func TestRetry_RecoversFrom5xx(t *testing.T) {
	gen := &scriptedGenerator{fn: func(attempt int) (string, error) {
		if attempt == 1 {
			return "", &model.HTTPError{StatusCode: 503, Err: errors.New("unavailable")}
		}
		return "ok", nil
	}}

	got, err := NewRetryGenerator(gen, 2, 10*time.Millisecond, discardLogger()).Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || gen.calls != 2 {
		t.Fatalf("got %q after %d calls, want ok after 2", got, gen.calls)
	}
}

func TestRetry_RecoversFromNetworkError(t *testing.T) {
	gen := &scriptedGenerator{fn: func(attempt int) (string, error) {
		if attempt < 3 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	}}

	if _, err := NewRetryGenerator(gen, 2, time.Millisecond, discardLogger()).Complete(context.Background(), "p"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", gen.calls)
	}
}

func TestRetry_DoesNotRetryClientErrors(t *testing.T) {
	gen := &scriptedGenerator{fn: func(int) (string, error) {
		return "", &model.HTTPError{StatusCode: 401, Err: errors.New("bad key")}
	}}

	_, err := NewRetryGenerator(gen, 2, 10*time.Millisecond, discardLogger()).Complete(context.Background(), "p")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 401 {
		t.Fatalf("expected HTTPError 401, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", gen.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	gen := &scriptedGenerator{fn: func(int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("internal")}
	}}

	_, err := NewRetryGenerator(gen, 2, 10*time.Millisecond, discardLogger()).Complete(context.Background(), "p")
	if err == nil {
		t.Fatal("expected error after max retries")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected wrapped HTTPError, got %v", err)
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", gen.calls)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	gen := &scriptedGenerator{fn: func(int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("internal")}
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRetryGenerator(gen, 2, time.Second, discardLogger()).Complete(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", gen.calls)
	}
}

func TestRetry_NeverRetriesContextErrors(t *testing.T) {
	gen := &scriptedGenerator{fn: func(int) (string, error) {
		return "", context.DeadlineExceeded
	}}

	_, err := NewRetryGenerator(gen, 3, time.Millisecond, discardLogger()).Complete(context.Background(), "p")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 call, got %d", gen.calls)
	}
}

func TestBackoffDelay(t *testing.T) {
	g := NewRetryGenerator(nil, 3, 100*time.Millisecond, discardLogger())

	for attempt, base := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 400 * time.Millisecond} {
		d := g.backoffDelay(attempt, errors.New("x"))
		lo, hi := time.Duration(float64(base)*0.7), time.Duration(float64(base)*1.3)
		if d < lo || d > hi {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", attempt, d, lo, hi)
		}
	}

	hinted := &model.HTTPError{StatusCode: 429, RetryAfter: 3 * time.Second}
	if d := g.backoffDelay(1, hinted); d != 3*time.Second {
		t.Errorf("Retry-After delay = %v, want 3s", d)
	}
}
