// Package quota computes monthly prompt usage against the plan limit.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/logger"
)

// DefaultLimit is the free-tier monthly prompt allowance
const DefaultLimit = 5

// Counter counts a user's active prompts in a time window
type Counter interface {
	CountActiveSince(ctx context.Context, userID string, from, to time.Time) (int, error)
}

// Tracker computes usage snapshots. The limit is the same for every user;
// the stored plan is not consulted.
type Tracker struct {
	counter Counter
	limit   int
	clock   domain.Clock
	logger  logger.Logger
}

// NewTracker creates a tracker with the given monthly limit
func NewTracker(counter Counter, limit int, clock domain.Clock, log logger.Logger) *Tracker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Tracker{
		counter: counter,
		limit:   limit,
		clock:   clock,
		logger:  log.With("component", "quota"),
	}
}

// Limit returns the configured monthly limit
func (t *Tracker) Limit() int {
	return t.limit
}

// Snapshot counts this month's active prompts and reports any storage error
func (t *Tracker) Snapshot(ctx context.Context, userID string) (domain.Usage, error) {
	start, end := MonthWindow(t.clock.Now())

	used, err := t.counter.CountActiveSince(ctx, userID, start, end)
	if err != nil {
		return domain.Usage{}, fmt.Errorf("failed to count monthly prompts: %w", err)
	}

	limit := t.limit
	return domain.Usage{
		CanCreate: used < limit,
		Used:      used,
		Limit:     &limit,
	}, nil
}

// Check is Snapshot that fails open: a counting error allows creation and
// reports zero usage.
func (t *Tracker) Check(ctx context.Context, userID string) domain.Usage {
	usage, err := t.Snapshot(ctx, userID)
	if err != nil {
		t.logger.Error("usage check failed, allowing creation", "user_id", userID, "error", err)
		limit := t.limit
		return domain.Usage{CanCreate: true, Used: 0, Limit: &limit}
	}
	return usage
}
