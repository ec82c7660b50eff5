package rotation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/soddle/internal/dependencies/clock"
	"github.com/mcoot/soddle/internal/metrics"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/storage"
)

// DefaultInterval is the length of one competition
const DefaultInterval = 24 * time.Hour

// Rotator advances the active competition
type Rotator interface {
	Rotate(ctx context.Context, start time.Time, length time.Duration) (model.Competition, error)
}

// Scheduler rotates the competition once per interval slot. Replicas sharing a
// storage backend race for a per-slot lock, so only one of them rotates.
type Scheduler struct {
	rotator  Rotator
	locker   storage.Locker
	clock    clock.Clock
	interval time.Duration
	metrics  *metrics.Manager
	logger   *slog.Logger
}

// NewScheduler creates a new rotation Scheduler
func NewScheduler(
	rotator Rotator,
	locker storage.Locker,
	clock clock.Clock,
	interval time.Duration,
	metrics *metrics.Manager,
	logger *slog.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		rotator:  rotator,
		locker:   locker,
		clock:    clock,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
	}
}

// Slot returns the start of the interval slot containing t
func (s *Scheduler) Slot(t time.Time) time.Time {
	return t.UTC().Truncate(s.interval)
}

func lockKey(slot time.Time) string {
	return fmt.Sprintf("rotation:%d", slot.Unix())
}

// RunOnce rotates to the current slot's competition unless another run
// already holds the slot. It reports whether this call did the rotation.
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	slot := s.Slot(s.clock.Now())

	acquired, err := s.locker.TryLock(ctx, lockKey(slot), s.interval)
	if err != nil {
		s.metrics.Rotation(metrics.ResultFailure)
		s.logger.Error("failed to acquire rotation lock",
			slog.Time("slot", slot),
			slog.String("error", err.Error()),
		)
		return false, err
	}
	if !acquired {
		s.metrics.Rotation(metrics.ResultSkipped)
		s.logger.Debug("rotation already claimed", slog.Time("slot", slot))
		return false, nil
	}

	comp, err := s.rotator.Rotate(ctx, slot, s.interval)
	if err != nil {
		s.metrics.Rotation(metrics.ResultFailure)
		s.logger.Error("failed to rotate competition",
			slog.Time("slot", slot),
			slog.String("error", err.Error()),
		)
		// Free the slot so the next tick, on any replica, can try again
		if unlockErr := s.locker.Unlock(ctx, lockKey(slot)); unlockErr != nil {
			s.logger.Warn("failed to release rotation lock",
				slog.Time("slot", slot),
				slog.String("error", unlockErr.Error()),
			)
		}
		return false, err
	}

	s.metrics.Rotation(metrics.ResultSuccess)
	s.logger.Info("competition rotated",
		slog.String("competition_id", comp.ID),
		slog.Time("start", comp.StartTime),
		slog.Time("end", comp.EndTime),
	)
	return true, nil
}

// Run rotates immediately and then on every tick of checkEvery until ctx is
// done. Failed runs are retried on the next tick.
func (s *Scheduler) Run(ctx context.Context, checkEvery time.Duration) {
	if checkEvery <= 0 {
		checkEvery = time.Minute
	}

	_, _ = s.RunOnce(ctx)

	ticks, stop := s.clock.NewTicker(checkEvery)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			_, _ = s.RunOnce(ctx)
		}
	}
}
