package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
)

const SessionSweepJobName = "session-sweep"

type expiredSweeper interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type SessionSweepJobParams struct {
	Logger *logger.Logger
	Store  expiredSweeper
}

// NewSessionSweepJob removes session entries (carts, wishlists) whose idle
// TTL has lapsed. Redis expires keys itself; this job serves the SQL and
// memory stores.
func NewSessionSweepJob(params SessionSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &sessionSweepJob{
		logg:  params.Logger,
		store: params.Store,
		now:   time.Now,
	}, nil
}

type sessionSweepJob struct {
	logg  *logger.Logger
	store expiredSweeper
	now   func() time.Time
}

func (j *sessionSweepJob) Name() string { return SessionSweepJobName }

func (j *sessionSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	deleted, err := j.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("session sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "session sweep complete")
	return nil
}
