package storage

import (
	"context"
	"sort"
	"time"

	"github.com/mcoot/soddle/internal/model"
)

// SortByStageStart orders sessions by the start of stage, breaking ties by
// creation sequence
func SortByStageStart(sessions []*model.Session, stage model.Stage) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, _ := sessions[i].Stage(stage)
		b, _ := sessions[j].Stage(stage)
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		return sessions[i].Seq < sessions[j].Seq
	})
}

// DefaultMaxAttempts bounds how many times Update re-runs a unit of work that
// lost a concurrent-write race before giving up with model.ErrCommitConflict
const DefaultMaxAttempts = 5

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Session operations
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)

	// CompletedSessions returns sessions whose given stage is completed and
	// whose stage start is at or after since (zero means unbounded), ordered
	// by stage start with ties in creation order.
	CompletedSessions(ctx context.Context, stage model.Stage, since time.Time) ([]*model.Session, error)

	// Update runs fn as one atomic unit of work over a player and the
	// sessions it touches. fn may be invoked more than once if a concurrent
	// writer wins the race, so it must only act through uow. Staged writes
	// are committed all-or-nothing; an error from fn discards them.
	Update(ctx context.Context, playerID model.PlayerID, fn func(uow UnitOfWork) error) error

	Locker
}

// UnitOfWork is the transactional view handed to Storage.Update
type UnitOfWork interface {
	// Player returns the player the unit of work is scoped to, or
	// model.ErrPlayerNotFound if it has never been saved
	Player() (*model.Player, error)

	// Session returns a session and includes it in the conflict check
	Session(id model.SessionID) (*model.Session, error)

	// SavePlayer stages the player for commit
	SavePlayer(player *model.Player)

	// SaveSession stages the session for commit
	SaveSession(session *model.Session)
}

// Locker provides named, expiring locks shared by every replica using the
// same backend
type Locker interface {
	// TryLock acquires key for ttl. It returns false without error when
	// another holder already owns the key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Unlock releases key early. Releasing a key that is not held is a no-op.
	Unlock(ctx context.Context, key string) error
}
