// Package scheduler runs many tailoring sessions with bounded concurrency.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/resumeforge/internal/pipeline"
)

// Runner executes one session.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Outcome pairs a request with what happened to it.
type Outcome struct {
	Request pipeline.Request
	Result  pipeline.Result
	Err     error
	Skipped bool // never started because the batch was cancelled
}

// BatchSummary reports a finished batch. Outcomes are in request order.
type BatchSummary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Outcomes  []Outcome
}

// Scheduler fans requests out to a Runner, at most concurrency at a time.
type Scheduler struct {
	runner      Runner
	concurrency int
	logger      *slog.Logger
}

func NewScheduler(runner Runner, concurrency int, logger *slog.Logger) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{runner: runner, concurrency: concurrency, logger: logger}
}

// RunBatch runs every request and waits for them all. A failed session does
// not stop the others. Once ctx is done no new session starts; the remaining
// requests are counted as skipped and ctx's error is returned.
func (s *Scheduler) RunBatch(ctx context.Context, reqs []pipeline.Request) (BatchSummary, error) {
	start := time.Now()
	s.logger.Info("starting batch", "sessions", len(reqs), "concurrency", s.concurrency)

	outcomes := make([]Outcome, len(reqs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, req := range reqs {
		outcomes[i].Request = req
		if err := ctx.Err(); err != nil {
			outcomes[i].Err, outcomes[i].Skipped = fmt.Errorf("skipped: %w", err), true
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Err, outcomes[i].Skipped = fmt.Errorf("skipped: %w", err), true
				return nil
			}
			res, err := s.runner.Run(ctx, req)
			outcomes[i].Result, outcomes[i].Err = res, err
			if err != nil {
				s.logger.Error("session failed", "job", req.JobName, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	sum := BatchSummary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			sum.Skipped++
		case o.Err == nil:
			sum.Succeeded++
		default:
			sum.Failed++
		}
	}

	s.logger.Info("batch complete",
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return sum, ctx.Err()
}
