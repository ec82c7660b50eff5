package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/mcoot/soddle/internal/dependencies/clock"
	"github.com/mcoot/soddle/internal/metrics"
	"github.com/mcoot/soddle/internal/model"
)

// Config holds ledger anchoring settings
type Config struct {
	// ProgramID namespaces derived addresses
	ProgramID string

	// MaxAttempts is the total number of write attempts per score
	MaxAttempts int

	// BackoffStep is the linear backoff unit: the wait before attempt n+1 is n*step
	BackoffStep time.Duration

	// SubmitTimeout bounds one asynchronous submission including retries
	SubmitTimeout time.Duration

	// AttemptTimeout bounds a single write attempt
	AttemptTimeout time.Duration

	// CompetitionRefresh is how long a fetched competition is served from cache
	CompetitionRefresh time.Duration
}

// DefaultConfig returns the standard anchoring settings
func DefaultConfig() Config {
	return Config{
		ProgramID:          "soddle",
		MaxAttempts:        3,
		BackoffStep:        time.Second,
		SubmitTimeout:      30 * time.Second,
		AttemptTimeout:     5 * time.Second,
		CompetitionRefresh: time.Minute,
	}
}

// Anchor wraps a Client with retries, asynchronous submission and a cached
// view of the active competition
type Anchor struct {
	client  Client
	cfg     Config
	clock   clock.Clock
	metrics *metrics.Manager
	logger  *slog.Logger

	newTimer func() backoff.Timer

	inflight sync.WaitGroup

	group       singleflight.Group
	mu          sync.RWMutex
	competition *model.Competition
	fetchedAt   time.Time
	generation  uint64 // bumped by Rotate
}

// Option configures an Anchor
type Option func(*Anchor)

// WithTimer replaces the timer used to wait between attempts
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(a *Anchor) {
		a.newTimer = newTimer
	}
}

// NewAnchor creates a new Anchor
func NewAnchor(
	client Client,
	cfg Config,
	clock clock.Clock,
	metrics *metrics.Manager,
	logger *slog.Logger,
	opts ...Option,
) *Anchor {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	a := &Anchor{
		client:  client,
		cfg:     cfg,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// linearBackOff waits step, 2*step, 3*step... between attempts
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}

// SubmitScore writes the score to the ledger, retrying with linear backoff.
// It returns model.ErrLedgerUnavailable once every attempt has failed.
func (a *Anchor) SubmitScore(ctx context.Context, req ScoreRequest) (string, error) {
	address := DeriveAddress(a.cfg.ProgramID, req.Player, req.CompetitionID)

	var receipt string
	operation := func() error {
		attemptCtx := ctx
		if a.cfg.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, a.cfg.AttemptTimeout)
			defer cancel()
		}
		r, err := a.client.SubmitScore(attemptCtx, address, req)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		a.metrics.LedgerRetry()
		a.logger.Warn("ledger write failed, retrying",
			slog.String("player", string(req.Player)),
			slog.String("stage", req.Stage.String()),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}

	var b backoff.BackOff = &linearBackOff{step: a.cfg.BackoffStep}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(a.cfg.MaxAttempts-1)), ctx)

	var timer backoff.Timer
	if a.newTimer != nil {
		timer = a.newTimer()
	}

	if err := backoff.RetryNotifyWithTimer(operation, b, notify, timer); err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrLedgerUnavailable, err)
	}
	return receipt, nil
}

// SubmitAsync anchors the score in the background. Cancelling ctx does not
// cancel the submission; failures are logged and counted, never returned.
func (a *Anchor) SubmitAsync(ctx context.Context, req ScoreRequest) {
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.SubmitTimeout)
		defer cancel()

		receipt, err := a.SubmitScore(ctx, req)
		if err != nil {
			a.metrics.LedgerSubmission(metrics.ResultFailure)
			a.logger.Error("failed to anchor score",
				slog.String("player", string(req.Player)),
				slog.String("session_id", string(req.SessionID)),
				slog.String("stage", req.Stage.String()),
				slog.Int("score", req.Score),
				slog.String("error", err.Error()),
			)
			return
		}

		a.metrics.LedgerSubmission(metrics.ResultSuccess)
		a.logger.Info("score anchored",
			slog.String("player", string(req.Player)),
			slog.String("session_id", string(req.SessionID)),
			slog.String("stage", req.Stage.String()),
			slog.Int("score", req.Score),
			slog.String("receipt", receipt),
		)
	}()
}

// Wait blocks until every submission started by SubmitAsync has finished
func (a *Anchor) Wait() {
	a.inflight.Wait()
}

// ActiveCompetition returns the active competition, refreshing the cached
// value when it is older than the refresh interval. Concurrent refreshes
// share one ledger read, and a failed refresh falls back to the cached value.
func (a *Anchor) ActiveCompetition(ctx context.Context) (model.Competition, error) {
	now := a.clock.Now()

	a.mu.RLock()
	cached, fetchedAt, gen := a.competition, a.fetchedAt, a.generation
	a.mu.RUnlock()

	if cached != nil && now.Sub(fetchedAt) < a.cfg.CompetitionRefresh {
		return *cached, nil
	}

	v, err, _ := a.group.Do("competition", func() (any, error) {
		comp, err := a.client.ActiveCompetition(ctx)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		// A read that started before a rotation must not repopulate the cache
		if a.generation == gen {
			a.competition = &comp
			a.fetchedAt = a.clock.Now()
		}
		a.mu.Unlock()
		return comp, nil
	})
	if err != nil {
		if cached != nil {
			a.logger.Warn("competition refresh failed, serving cached value",
				slog.String("competition_id", cached.ID),
				slog.String("error", err.Error()),
			)
			return *cached, nil
		}
		return model.Competition{}, fmt.Errorf("%w: active competition: %w", model.ErrExternalDependency, err)
	}
	return v.(model.Competition), nil
}

// CompetitionID returns the id of the competition starting at start
func CompetitionID(start time.Time) string {
	return fmt.Sprintf("comp-%d", start.Unix())
}

// Rotate makes the competition for the slot starting at start active on the
// ledger. The id is derived from start, so repeating a rotation is harmless.
func (a *Anchor) Rotate(ctx context.Context, start time.Time, length time.Duration) (model.Competition, error) {
	comp := model.Competition{
		ID:        CompetitionID(start),
		StartTime: start,
		EndTime:   start.Add(length),
	}

	if err := a.client.RotateCompetition(ctx, comp); err != nil {
		return model.Competition{}, fmt.Errorf("%w: rotate competition: %w", model.ErrExternalDependency, err)
	}

	a.mu.Lock()
	a.competition = nil
	a.generation++
	a.mu.Unlock()
	a.group.Forget("competition")

	return comp, nil
}
