// Package evaluator compares a guess against the secret profile of a session.
package evaluator

import (
	"cmp"
	"strings"

	"github.com/mcoot/soddle/internal/model"
)

// Evaluate compares guess against secret for the given stage. It is pure and
// safe to call inside a storage unit of work.
func Evaluate(secret, guess model.Profile, stage model.Stage) (model.Evaluation, error) {
	switch stage {
	case model.StageOne:
		attrs := evaluateAttributes(secret, guess)
		return model.Evaluation{Stage: stage, Attributes: &attrs}, nil
	case model.StageTwo:
		return model.Evaluation{Stage: stage, Match: secret.ID == guess.ID}, nil
	default:
		return model.Evaluation{}, model.ErrInvalidStage
	}
}

func evaluateAttributes(secret, guess model.Profile) model.AttributeResults {
	return model.AttributeResults{
		Name:            exact(secret.Name, guess.Name),
		Age:             ordered(secret.Age, guess.Age),
		Country:         exact(secret.Country, guess.Country),
		PfpType:         contains(secret.PfpType, guess.PfpType),
		AccountCreation: ordered(secret.AccountCreation, guess.AccountCreation),
		Followers:       ordered(secret.Followers, guess.Followers),
		Ecosystem:       contains(secret.Ecosystem, guess.Ecosystem),
	}
}

func exact(secret, guess string) model.AttributeResult {
	if secret == guess {
		return model.Correct
	}
	return model.Incorrect
}

// contains accepts a guess that names a category the secret includes, so
// "human" matches a secret of "human, animated". An empty guess never matches.
func contains(secret, guess string) model.AttributeResult {
	if guess != "" && strings.Contains(secret, guess) {
		return model.Correct
	}
	return model.Incorrect
}

// ordered reports where the secret value lies relative to the guess
func ordered[T cmp.Ordered](secret, guess T) model.AttributeResult {
	switch cmp.Compare(secret, guess) {
	case 1:
		return model.Higher
	case -1:
		return model.Lower
	default:
		return model.Correct
	}
}
