package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the session engine wraps exactly one of
// these so callers can branch with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrExternalDependency = errors.New("external dependency failure")
	ErrStorage            = errors.New("storage failure")
)

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound  = fmt.Errorf("%w: player", ErrNotFound)
	ErrNoActiveSession = fmt.Errorf("%w: player has no active session", ErrNotFound)

	// Session errors
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrStageCompleted  = fmt.Errorf("%w: stage already completed", ErrConflict)
	ErrCommitConflict  = fmt.Errorf("%w: concurrent update retries exhausted", ErrConflict)

	// Input errors
	ErrInvalidStage  = fmt.Errorf("%w: unsupported stage", ErrInvalidInput)
	ErrInvalidWindow = fmt.Errorf("%w: unsupported leaderboard window", ErrInvalidInput)
	ErrInvalidGuess  = fmt.Errorf("%w: malformed guess", ErrInvalidInput)
	ErrInvalidPlayer = fmt.Errorf("%w: player id is required", ErrInvalidInput)

	// Catalog errors
	ErrProfileNotFound  = fmt.Errorf("%w: profile", ErrNotFound)
	ErrCatalogNotLoaded = fmt.Errorf("%w: profile catalog not loaded", ErrNotFound)

	// Ledger errors
	ErrLedgerUnavailable = fmt.Errorf("%w: ledger unreachable after retries", ErrExternalDependency)
)

// StorageError wraps a backend failure so it matches ErrStorage.
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
