package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/soddle/internal/dependencies/clock"
	"github.com/mcoot/soddle/internal/dependencies/ids"
	"github.com/mcoot/soddle/internal/metrics"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/services/evaluator"
	"github.com/mcoot/soddle/internal/services/ledger"
	"github.com/mcoot/soddle/internal/services/scoring"
	"github.com/mcoot/soddle/internal/storage"
)

// Anchor is the part of the ledger the lifecycle depends on
type Anchor interface {
	ActiveCompetition(ctx context.Context) (model.Competition, error)
	SubmitAsync(ctx context.Context, req ledger.ScoreRequest)
}

// Options tunes lifecycle policy
type Options struct {
	// ArchiveOnStageComplete retires the session as soon as either stage is
	// solved instead of waiting for both
	ArchiveOnStageComplete bool
}

// Controller manages the session lifecycle: starting sessions, applying
// guesses and reading the active session
type Controller struct {
	storage storage.Storage
	scoring *scoring.Service
	anchor  Anchor
	clock   clock.Clock
	ids     ids.Generator
	metrics *metrics.Manager
	logger  *slog.Logger
	opts    Options
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	scoring *scoring.Service,
	anchor Anchor,
	clock clock.Clock,
	ids ids.Generator,
	metrics *metrics.Manager,
	logger *slog.Logger,
	opts Options,
) *Controller {
	return &Controller{
		storage: storage,
		scoring: scoring,
		anchor:  anchor,
		clock:   clock,
		ids:     ids,
		metrics: metrics,
		logger:  logger,
		opts:    opts,
	}
}

// StartSession starts the requested stage for a player. A new session is
// created when the player has none, the active one is completed, or the
// requested stage is already solved on it; otherwise the active session is
// reused with only the requested stage reset.
func (c *Controller) StartSession(ctx context.Context, playerID model.PlayerID, stage model.Stage, profile model.Profile) (*model.Session, error) {
	if playerID == "" {
		return nil, model.ErrInvalidPlayer
	}
	if !stage.Valid() {
		return nil, model.ErrInvalidStage
	}

	// Only needed if a session is created; a failure here must not block reuse
	comp, compErr := c.anchor.ActiveCompetition(ctx)

	now := c.clock.Now()
	base := c.scoring.BaseScore()

	var (
		result  *model.Session
		created bool
	)
	err := c.storage.Update(ctx, playerID, func(uow storage.UnitOfWork) error {
		result, created = nil, false

		player, err := uow.Player()
		if errors.Is(err, model.ErrPlayerNotFound) {
			player = model.NewPlayer(playerID, now)
		} else if err != nil {
			return err
		}

		active, err := c.activeSession(uow, player)
		if err != nil {
			return err
		}

		if active != nil && !needsNewSession(active, stage) {
			st, _ := active.Stage(stage)
			st.Reset(base, now)
			active.LastStage = stage
			active.TotalScore = c.scoring.TotalScore(active.One.Score, active.Two.Score, scoring.Breakdown{})
			active.Refresh()
			active.UpdatedAt = now
			uow.SaveSession(active)
			result = active
			return nil
		}

		if compErr != nil {
			return compErr
		}

		if player.HasActiveSession() {
			player.Retire(player.CurrentSessionID)
		}

		session := model.NewSession(model.SessionID(c.ids.NewID()), playerID, comp.ID, profile, base, now)
		session.LastStage = stage
		session.TotalScore = c.scoring.TotalScore(base, base, scoring.Breakdown{})

		player.CurrentSessionID = session.ID
		player.UpdatedAt = now
		uow.SavePlayer(player)
		uow.SaveSession(session)

		result = session
		created = true
		return nil
	})
	if err != nil {
		c.logFailure(ctx, "failed to start session", playerID, stage, err)
		return nil, err
	}

	c.metrics.SessionStarted(created)
	c.logger.Info("session started",
		slog.String("player", string(playerID)),
		slog.String("session_id", string(result.ID)),
		slog.String("stage", stage.String()),
		slog.Bool("created", created),
	)

	return result, nil
}

// needsNewSession reports whether starting stage must retire the active session
func needsNewSession(active *model.Session, stage model.Stage) bool {
	if active.Completed {
		return true
	}
	st, _ := active.Stage(stage)
	return st.Completed
}

// activeSession loads the player's active session, or nil if there is none.
// A reference to a session that no longer exists is treated as none.
func (c *Controller) activeSession(uow storage.UnitOfWork, player *model.Player) (*model.Session, error) {
	if !player.HasActiveSession() {
		return nil, nil
	}
	session, err := uow.Session(player.CurrentSessionID)
	if errors.Is(err, model.ErrSessionNotFound) {
		c.logger.Warn("player references missing session",
			slog.String("player", string(player.ID)),
			slog.String("session_id", string(player.CurrentSessionID)),
		)
		return nil, nil
	}
	return session, err
}

// SubmitGuess applies a guess to the player's active session. After the
// update commits the new stage score is anchored to the ledger in the
// background; the ledger outcome never affects the returned session.
func (c *Controller) SubmitGuess(ctx context.Context, playerID model.PlayerID, stage model.Stage, guess model.Profile) (*model.Session, error) {
	if playerID == "" {
		return nil, model.ErrInvalidPlayer
	}
	if !stage.Valid() {
		return nil, model.ErrInvalidStage
	}

	now := c.clock.Now()

	var (
		result *model.Session
		solved bool
	)
	err := c.storage.Update(ctx, playerID, func(uow storage.UnitOfWork) error {
		result, solved = nil, false

		player, err := uow.Player()
		if err != nil {
			return err
		}
		if !player.HasActiveSession() {
			return model.ErrNoActiveSession
		}
		session, err := uow.Session(player.CurrentSessionID)
		if err != nil {
			return err
		}

		st, err := session.Stage(stage)
		if err != nil {
			return err
		}
		if st.Completed {
			return model.ErrStageCompleted
		}

		eval, err := evaluator.Evaluate(session.Profile, guess, stage)
		if err != nil {
			return err
		}
		solved = eval.Solved()

		elapsed := max(now.Sub(st.StartedAt), 0)
		priorGuesses := st.GuessCount
		breakdown := c.scoring.StageScore(elapsed, priorGuesses, solved)

		st.Guesses = append(st.Guesses, model.GuessRecord{
			Guess:     guess,
			Result:    eval,
			Solved:    solved,
			Score:     breakdown.Score,
			GuessedAt: now,
		})
		st.GuessCount = len(st.Guesses)
		st.Score = breakdown.Score
		st.Completed = solved
		st.ElapsedSeconds = elapsed.Seconds()

		session.LastStage = stage
		session.TotalScore = c.scoring.TotalScore(session.One.Score, session.Two.Score, breakdown)
		session.Refresh()
		session.UpdatedAt = now
		uow.SaveSession(session)

		if session.Completed || (solved && c.opts.ArchiveOnStageComplete) {
			player.Retire(session.ID)
			player.UpdatedAt = now
			uow.SavePlayer(player)
		}

		result = session
		return nil
	})
	if err != nil {
		c.logFailure(ctx, "failed to submit guess", playerID, stage, err)
		return nil, err
	}

	st, _ := result.Stage(stage)
	c.metrics.GuessCommitted(stage, solved)
	c.logger.Info("guess submitted",
		slog.String("player", string(playerID)),
		slog.String("session_id", string(result.ID)),
		slog.String("stage", stage.String()),
		slog.Int("guess_count", st.GuessCount),
		slog.Int("stage_score", st.Score),
		slog.Bool("solved", solved),
	)

	c.anchor.SubmitAsync(ctx, ledger.ScoreRequest{
		Player:        playerID,
		CompetitionID: result.CompetitionID,
		SessionID:     result.ID,
		Stage:         stage,
		Score:         st.Score,
		GuessCount:    st.GuessCount,
	})

	return result, nil
}

// GetActiveSession returns the player's active session
func (c *Controller) GetActiveSession(ctx context.Context, playerID model.PlayerID) (*model.Session, error) {
	if playerID == "" {
		return nil, model.ErrInvalidPlayer
	}

	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if !player.HasActiveSession() {
		return nil, model.ErrNoActiveSession
	}
	return c.storage.GetSession(ctx, player.CurrentSessionID)
}

// GetPlayer returns the player record, including retired session history
func (c *Controller) GetPlayer(ctx context.Context, playerID model.PlayerID) (*model.Player, error) {
	if playerID == "" {
		return nil, model.ErrInvalidPlayer
	}
	return c.storage.GetPlayer(ctx, playerID)
}

// GetSession returns any session, active or archived
func (c *Controller) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return c.storage.GetSession(ctx, id)
}

func (c *Controller) logFailure(ctx context.Context, msg string, playerID model.PlayerID, stage model.Stage, err error) {
	if errors.Is(err, model.ErrCommitConflict) {
		c.metrics.StorageConflict()
	}

	level := slog.LevelWarn
	if errors.Is(err, model.ErrStorage) || errors.Is(err, model.ErrExternalDependency) {
		level = slog.LevelError
	}
	c.logger.Log(ctx, level, msg,
		slog.String("player", string(playerID)),
		slog.String("stage", stage.String()),
		slog.String("error", err.Error()),
	)
}
