package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	HourlyPruneSpec       = "0 * * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	pruneHistoryTimeout   = 5 * time.Minute
)

// Pruner deletes history created before the given time.
type Pruner interface {
	DeleteSummariesBefore(ctx context.Context, t time.Time) (int64, error)
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	pruner    Pruner
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func New(ctx context.Context, pruner Pruner, retention time.Duration, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:       ctx,
		cron:      c,
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(HourlyPruneSpec, s.pruneHistory); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) pruneHistory() {
	ctx, cancel := context.WithTimeout(s.ctx, pruneHistoryTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	if s.retention <= 0 {
		return
	}

	cutoff := s.now().Add(-s.retention)

	deleted, err := s.pruner.DeleteSummariesBefore(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to prune summary history",
			"error", err,
			"cutoff", cutoff,
			"retention", s.retention.String())
		return
	}

	s.log.InfoContext(ctx, "Summary history is pruned",
		"deleted", deleted,
		"cutoff", cutoff,
		"retention", s.retention.String())
}
