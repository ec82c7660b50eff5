package leaderboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/soddle/internal/dependencies/mocks"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/storage"
	"github.com/mcoot/soddle/internal/storage/memory"
	"github.com/mcoot/soddle/internal/testutil"
)

type LeaderboardSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *mocks.MockClock
	storage *memory.Storage
	service *Service
	nextID  int
}

func TestLeaderboardSuite(t *testing.T) {
	suite.Run(t, new(LeaderboardSuite))
}

func (s *LeaderboardSuite) SetupTest() {
	s.ctx = context.Background()
	// Wednesday
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC))
	s.storage = memory.New(memory.WithClock(s.clock))
	s.service = New(s.storage, s.clock, Config{Location: time.UTC}, testutil.NopLogger())
	s.nextID = 0
}

// played stores a session for player whose stage started at startedAt
func (s *LeaderboardSuite) played(player model.PlayerID, stage model.Stage, startedAt time.Time, score int, completed bool) {
	s.nextID++
	id := model.SessionID(fmt.Sprintf("session-%d", s.nextID))

	err := s.storage.Update(s.ctx, player, func(uow storage.UnitOfWork) error {
		session := model.NewSession(id, player, "comp-1", model.Profile{ID: "kol-a"}, 1000, startedAt)
		st, err := session.Stage(stage)
		if err != nil {
			return err
		}
		st.Score = score
		st.Completed = completed
		session.Refresh()
		uow.SaveSession(session)
		return nil
	})
	s.Require().NoError(err)
}

func (s *LeaderboardSuite) TestGroupsAndRanksPlayers() {
	today := s.clock.Now().Add(-time.Hour)
	s.played("alice", model.StageOne, today, 500, true)
	s.played("bob", model.StageOne, today, 900, true)
	s.played("alice", model.StageOne, today.Add(time.Minute), 600, true)
	s.played("carol", model.StageOne, today, 300, false)

	entries, err := s.service.GetLeaderboard(s.ctx, model.WindowDaily, model.StageOne)
	s.Require().NoError(err)
	s.Equal([]model.LeaderboardEntry{
		{Player: "alice", TotalScore: 1100, GamesPlayed: 2},
		{Player: "bob", TotalScore: 900, GamesPlayed: 1},
	}, entries)
}

func (s *LeaderboardSuite) TestTiesKeepFirstSeenOrder() {
	base := s.clock.Now().Add(-2 * time.Hour)
	s.played("zed", model.StageTwo, base, 700, true)
	s.played("amy", model.StageTwo, base.Add(time.Minute), 700, true)
	s.played("kim", model.StageTwo, base.Add(2*time.Minute), 800, true)
	s.played("bea", model.StageTwo, base.Add(3*time.Minute), 700, true)

	entries, err := s.service.GetLeaderboard(s.ctx, model.WindowDaily, model.StageTwo)
	s.Require().NoError(err)
	s.Require().Len(entries, 4)
	s.Equal(model.PlayerID("kim"), entries[0].Player)
	s.Equal(model.PlayerID("zed"), entries[1].Player)
	s.Equal(model.PlayerID("amy"), entries[2].Player)
	s.Equal(model.PlayerID("bea"), entries[3].Player)
}

func (s *LeaderboardSuite) TestStagesAreIndependent() {
	now := s.clock.Now().Add(-time.Hour)
	s.played("alice", model.StageOne, now, 500, true)

	entries, err := s.service.GetLeaderboard(s.ctx, model.WindowDaily, model.StageTwo)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *LeaderboardSuite) TestWindowsFilterByStageStart() {
	now := s.clock.Now()
	s.played("today", model.StageOne, now.Add(-time.Hour), 100, true)
	s.played("yesterday", model.StageOne, now.Add(-24*time.Hour), 100, true)
	s.played("sunday", model.StageOne, time.Date(2026, 3, 8, 1, 0, 0, 0, time.UTC), 100, true)
	s.played("month", model.StageOne, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 100, true)
	s.played("ancient", model.StageOne, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 100, true)

	cases := []struct {
		window  model.Window
		players []model.PlayerID
	}{
		{model.WindowDaily, []model.PlayerID{"today"}},
		{model.WindowYesterday, []model.PlayerID{"yesterday", "today"}},
		{model.WindowWeekly, []model.PlayerID{"sunday", "yesterday", "today"}},
		{model.WindowMonthly, []model.PlayerID{"month", "sunday", "yesterday", "today"}},
		{model.WindowAllTime, []model.PlayerID{"ancient", "month", "sunday", "yesterday", "today"}},
	}
	for _, tc := range cases {
		entries, err := s.service.GetLeaderboard(s.ctx, tc.window, model.StageOne)
		s.Require().NoError(err, tc.window)

		var players []model.PlayerID
		for _, e := range entries {
			players = append(players, e.Player)
		}
		s.Equal(tc.players, players, tc.window)
	}
}

func (s *LeaderboardSuite) TestLimit() {
	s.service = New(s.storage, s.clock, Config{Limit: 2, Location: time.UTC}, testutil.NopLogger())
	now := s.clock.Now().Add(-time.Hour)
	for i, player := range []model.PlayerID{"a", "b", "c"} {
		s.played(player, model.StageOne, now, 100*(i+1), true)
	}

	entries, err := s.service.GetLeaderboard(s.ctx, model.WindowAllTime, model.StageOne)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(model.PlayerID("c"), entries[0].Player)
	s.Equal(model.PlayerID("b"), entries[1].Player)
}

func (s *LeaderboardSuite) TestInvalidInput() {
	_, err := s.service.GetLeaderboard(s.ctx, model.Window("hourly"), model.StageOne)
	s.ErrorIs(err, model.ErrInvalidWindow)

	_, err = s.service.GetLeaderboard(s.ctx, model.WindowDaily, model.Stage(7))
	s.ErrorIs(err, model.ErrInvalidInput)
}

func (s *LeaderboardSuite) TestCutoffUsesLocation() {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on Saturday is already Sunday in Tokyo
	now := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)

	daily, err := Cutoff(model.WindowDaily, now, tokyo)
	s.Require().NoError(err)
	s.Equal(time.Date(2026, 3, 8, 0, 0, 0, 0, tokyo), daily)

	weekly, err := Cutoff(model.WindowWeekly, now, tokyo)
	s.Require().NoError(err)
	s.Equal(daily, weekly)

	weekly, err = Cutoff(model.WindowWeekly, now, time.UTC)
	s.Require().NoError(err)
	s.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), weekly)
}
