package model

import (
	"slices"
	"time"
)

// SessionID uniquely identifies a game session
type SessionID string

// Stage selects one of the two mini-games
type Stage int

const (
	StageOne Stage = 1 // attribute guess
	StageTwo Stage = 2 // identity guess
)

// ParseStage converts a wire value into a Stage
func ParseStage(n int) (Stage, error) {
	s := Stage(n)
	if !s.Valid() {
		return 0, ErrInvalidStage
	}
	return s, nil
}

// Valid reports whether s is one of the two stages
func (s Stage) Valid() bool {
	return s == StageOne || s == StageTwo
}

func (s Stage) String() string {
	switch s {
	case StageOne:
		return "one"
	case StageTwo:
		return "two"
	default:
		return "invalid"
	}
}

// StageState carries one stage's score, guesses and completion flag
type StageState struct {
	Score          int
	Completed      bool
	Guesses        []GuessRecord // append-only
	GuessCount     int
	StartedAt      time.Time // effective start clock for time penalties
	ElapsedSeconds float64   // elapsed at the latest guess
}

// Reset puts the stage back to its starting state
func (st *StageState) Reset(baseScore int, now time.Time) {
	st.Score = baseScore
	st.Completed = false
	st.Guesses = nil
	st.GuessCount = 0
	st.StartedAt = now
	st.ElapsedSeconds = 0
}

// Mistakes returns the number of guesses that did not solve the stage
func (st *StageState) Mistakes() int {
	if st.Completed {
		return st.GuessCount - 1
	}
	return st.GuessCount
}

// Session is one player's attempt at the daily game. Sessions are archival:
// once retired they stay in storage.
type Session struct {
	ID            SessionID
	Player        PlayerID
	CompetitionID string  // bound at creation, never changes
	Profile       Profile // secret snapshot, never changes

	One StageState
	Two StageState

	// LastStage is the stage most recently started or guessed
	LastStage Stage

	TotalScore    int
	Completed     bool
	MistakesCount int
	TimeInSeconds int

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is bumped on every committed write and used for optimistic concurrency
	Version int64

	// Seq is assigned by storage when the session is first committed
	Seq int64
}

// NewSession creates a session with both stages at the base score
func NewSession(id SessionID, player PlayerID, competitionID string, profile Profile, baseScore int, now time.Time) *Session {
	s := &Session{
		ID:            id,
		Player:        player,
		CompetitionID: competitionID,
		Profile:       profile,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.One.Reset(baseScore, now)
	s.Two.Reset(baseScore, now)
	s.Refresh()
	return s
}

// Stage returns the state for the given stage
func (s *Session) Stage(st Stage) (*StageState, error) {
	switch st {
	case StageOne:
		return &s.One, nil
	case StageTwo:
		return &s.Two, nil
	default:
		return nil, ErrInvalidStage
	}
}

// StartTime returns the effective clock of the most recently applied stage
func (s *Session) StartTime() time.Time {
	if st, err := s.Stage(s.LastStage); err == nil {
		return st.StartedAt
	}
	return s.CreatedAt
}

// Refresh recomputes the fields derived from the two stages
func (s *Session) Refresh() {
	s.Completed = s.One.Completed && s.Two.Completed
	s.MistakesCount = s.One.Mistakes() + s.Two.Mistakes()
	s.TimeInSeconds = int(s.One.ElapsedSeconds + s.Two.ElapsedSeconds)
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	c := *s
	c.One.Guesses = slices.Clone(s.One.Guesses)
	c.Two.Guesses = slices.Clone(s.Two.Guesses)
	for i := range c.One.Guesses {
		c.One.Guesses[i].Result = cloneEvaluation(c.One.Guesses[i].Result)
	}
	for i := range c.Two.Guesses {
		c.Two.Guesses[i].Result = cloneEvaluation(c.Two.Guesses[i].Result)
	}
	return &c
}

func cloneEvaluation(e Evaluation) Evaluation {
	if e.Attributes != nil {
		attrs := *e.Attributes
		e.Attributes = &attrs
	}
	return e
}
