package model

import "time"

// AttributeResult is the outcome of comparing one attribute of a guess
type AttributeResult string

const (
	Correct   AttributeResult = "Correct"
	Incorrect AttributeResult = "Incorrect"
	Higher    AttributeResult = "Higher" // true value lies above the guess
	Lower     AttributeResult = "Lower"  // true value lies below the guess
)

// AttributeResults is the fixed-shape outcome of a stage one guess
type AttributeResults struct {
	Name            AttributeResult
	Age             AttributeResult
	Country         AttributeResult
	PfpType         AttributeResult
	AccountCreation AttributeResult
	Followers       AttributeResult
	Ecosystem       AttributeResult
}

// All returns the seven results in declaration order
func (r AttributeResults) All() []AttributeResult {
	return []AttributeResult{
		r.Name, r.Age, r.Country, r.PfpType, r.AccountCreation, r.Followers, r.Ecosystem,
	}
}

// Evaluation is the result of comparing a guess to the secret profile
type Evaluation struct {
	Stage Stage

	// Attributes is set for stage one
	Attributes *AttributeResults

	// Match is set for stage two
	Match bool
}

// Solved reports whether the guess meets the stage's win condition
func (e Evaluation) Solved() bool {
	switch e.Stage {
	case StageOne:
		if e.Attributes == nil {
			return false
		}
		for _, r := range e.Attributes.All() {
			if r != Correct {
				return false
			}
		}
		return true
	case StageTwo:
		return e.Match
	default:
		return false
	}
}

// GuessRecord is one entry in a stage's append-only guess list
type GuessRecord struct {
	Guess     Profile
	Result    Evaluation
	Solved    bool
	Score     int // stage score after this guess
	GuessedAt time.Time
}
