package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jobscout/jobscout/pkg/domain"
)

// DefaultStaleAfter is how long a prompt may stay processing
const DefaultStaleAfter = 15 * time.Minute

// StaleResolver settles prompts stuck in processing
type StaleResolver interface {
	ResolveStale(ctx context.Context, olderThan time.Time) (domain.StaleResolution, error)
}

// ReapRecorder counts reaped prompts
type ReapRecorder interface {
	RecordStaleReaped(n int64)
}

// StaleReaper settles prompts left in processing by a crashed request. A
// prompt whose content was stored before the crash is completed, not failed.
type StaleReaper struct {
	prompts StaleResolver
	after   time.Duration
	clock   domain.Clock
	metrics ReapRecorder
	logger  *log.Logger
}

// NewStaleReaper creates a reaper for prompts older than after
func NewStaleReaper(prompts StaleResolver, after time.Duration, clock domain.Clock, logger *log.Logger) *StaleReaper {
	if after <= 0 {
		after = DefaultStaleAfter
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &StaleReaper{
		prompts: prompts,
		after:   after,
		clock:   clock,
		logger:  logger,
	}
}

// SetMetrics sets the reap recorder
func (r *StaleReaper) SetMetrics(m ReapRecorder) {
	r.metrics = m
}

// Run settles every prompt still processing after the stale window
func (r *StaleReaper) Run(ctx context.Context) (domain.StaleResolution, error) {
	cutoff := r.clock.Now().Add(-r.after)

	res, err := r.prompts.ResolveStale(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("failed to resolve stale prompts: %w", err)
	}

	if r.metrics != nil {
		r.metrics.RecordStaleReaped(res.Total())
	}
	if res.Total() > 0 {
		r.logger.Printf("⚠️ Reaped stale prompts: %d completed, %d failed (processing since before %s)",
			res.Completed, res.Failed, cutoff.Format(time.RFC3339))
	}
	return res, nil
}
