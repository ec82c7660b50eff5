package leaderboard

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mcoot/soddle/internal/dependencies/clock"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/storage"
)

// DefaultLimit is the number of entries returned when no limit is configured
const DefaultLimit = 100

// Config holds leaderboard settings
type Config struct {
	// Limit caps the number of ranked entries
	Limit int

	// Location is the time zone window cutoffs are computed in
	Location *time.Location
}

// DefaultConfig returns the standard leaderboard settings
func DefaultConfig() Config {
	return Config{
		Limit:    DefaultLimit,
		Location: time.Local,
	}
}

// Service ranks players by their completed stage scores
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
}

// New creates a new leaderboard Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{
		storage: storage,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// GetLeaderboard sums the stage score of every session that completed stage
// within window, grouped by player, highest first. Players with equal totals
// keep the order in which they were first seen.
func (s *Service) GetLeaderboard(ctx context.Context, window model.Window, stage model.Stage) ([]model.LeaderboardEntry, error) {
	if !stage.Valid() {
		return nil, model.ErrInvalidStage
	}

	since, err := Cutoff(window, s.clock.Now(), s.cfg.Location)
	if err != nil {
		return nil, err
	}

	sessions, err := s.storage.CompletedSessions(ctx, stage, since)
	if err != nil {
		s.logger.Error("failed to load completed sessions",
			slog.String("window", string(window)),
			slog.String("stage", stage.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0)
	index := make(map[model.PlayerID]int)
	for _, session := range sessions {
		st, err := session.Stage(stage)
		if err != nil {
			return nil, err
		}
		if !st.Completed || (!since.IsZero() && st.StartedAt.Before(since)) {
			continue
		}

		i, ok := index[session.Player]
		if !ok {
			i = len(entries)
			index[session.Player] = i
			entries = append(entries, model.LeaderboardEntry{Player: session.Player})
		}
		entries[i].TotalScore += st.Score
		entries[i].GamesPlayed++
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})

	if len(entries) > s.cfg.Limit {
		entries = entries[:s.cfg.Limit]
	}
	return entries, nil
}

// Cutoff returns the earliest stage start included in window, evaluated at
// now in loc. The zero time means the window is unbounded.
func Cutoff(window model.Window, now time.Time, loc *time.Location) (time.Time, error) {
	now = now.In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch window {
	case model.WindowDaily:
		return midnight, nil
	case model.WindowWeekly:
		return midnight.AddDate(0, 0, -int(midnight.Weekday())), nil
	case model.WindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), nil
	case model.WindowYesterday:
		// Everything from yesterday's midnight onwards, today included
		return midnight.AddDate(0, 0, -1), nil
	case model.WindowAllTime:
		return time.Time{}, nil
	default:
		return time.Time{}, model.ErrInvalidWindow
	}
}
