package scoring

import (
	"math"
	"time"
)

// Policy holds the tunable scoring constants
type Policy struct {
	BaseScore       int
	RatePerSecond   float64
	PenaltyPerGuess int
}

// DefaultPolicy returns the standard daily game scoring constants
func DefaultPolicy() Policy {
	return Policy{
		BaseScore:       1000,
		RatePerSecond:   5,
		PenaltyPerGuess: 50,
	}
}

// Breakdown is the result of scoring one stage
type Breakdown struct {
	TimePenalty  int
	GuessPenalty int
	Score        int
}

// Service computes stage and total scores
type Service struct {
	policy Policy
}

// New creates a new scoring Service
func New(policy Policy) *Service {
	return &Service{
		policy: policy,
	}
}

// BaseScore returns the score a stage starts at
func (s *Service) BaseScore() int {
	return s.policy.BaseScore
}

// StageScore scores a stage from scratch. priorGuesses counts the guesses made
// before the one being scored; a solving guess is not charged for itself.
func (s *Service) StageScore(elapsed time.Duration, priorGuesses int, solved bool) Breakdown {
	seconds := max(elapsed.Seconds(), 0)
	priorGuesses = max(priorGuesses, 0)

	timePenalty := int(math.Floor(seconds * s.policy.RatePerSecond))

	charged := priorGuesses
	if !solved {
		charged++
	}
	guessPenalty := charged * s.policy.PenaltyPerGuess

	return Breakdown{
		TimePenalty:  timePenalty,
		GuessPenalty: guessPenalty,
		Score:        clamp(s.policy.BaseScore-timePenalty-guessPenalty, 0, s.policy.BaseScore),
	}
}

// TotalScore combines both stage scores, less the penalties of the stage that
// was most recently applied
func (s *Service) TotalScore(one, two int, last Breakdown) int {
	return clamp(one+two-last.TimePenalty-last.GuessPenalty, 0, 2*s.policy.BaseScore)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
