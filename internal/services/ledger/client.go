// Package ledger anchors finalized stage scores to the external append-only
// ledger and tracks the active competition.
package ledger

import (
	"context"

	"github.com/mcoot/soddle/internal/model"
)

// ScoreRequest is one finalized stage score bound for the ledger
type ScoreRequest struct {
	Player        model.PlayerID
	CompetitionID string
	SessionID     model.SessionID
	Stage         model.Stage
	Score         int
	GuessCount    int
}

// Client is the transport to the ledger
type Client interface {
	// SubmitScore writes a score record at address and returns the ledger's receipt id
	SubmitScore(ctx context.Context, address string, req ScoreRequest) (string, error)

	// ActiveCompetition reads the competition currently accepting scores
	ActiveCompetition(ctx context.Context) (model.Competition, error)

	// RotateCompetition makes comp the active competition. Rotating to the
	// competition that is already active is a no-op.
	RotateCompetition(ctx context.Context, comp model.Competition) error
}
