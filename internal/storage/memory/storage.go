package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mcoot/soddle/internal/dependencies/clock"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/storage"
)

// errVersionMismatch signals that a concurrent writer committed first
var errVersionMismatch = errors.New("version mismatch")

// Storage is an in-memory implementation of the storage interface. Updates
// use optimistic concurrency: the unit of work reads snapshots, and the
// commit succeeds only if every record it read still has the same version.
type Storage struct {
	mu sync.RWMutex

	players      map[model.PlayerID]*model.Player
	sessions     map[model.SessionID]*model.Session
	sessionOrder []model.SessionID // creation order
	locks        map[string]time.Time

	clock       clock.Clock
	maxAttempts int
}

// Option configures the in-memory storage
type Option func(*Storage)

// WithClock sets the clock used for lock expiry
func WithClock(c clock.Clock) Option {
	return func(s *Storage) {
		s.clock = c
	}
}

// WithMaxAttempts bounds conflict retries in Update
func WithMaxAttempts(n int) Option {
	return func(s *Storage) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New creates a new in-memory storage instance
func New(opts ...Option) *Storage {
	s := &Storage{
		players:     make(map[model.PlayerID]*model.Player),
		sessions:    make(map[model.SessionID]*model.Session),
		locks:       make(map[string]time.Time),
		clock:       clock.New(),
		maxAttempts: storage.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

// Session operations

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *Storage) CompletedSessions(ctx context.Context, stage model.Stage, since time.Time) ([]*model.Session, error) {
	if !stage.Valid() {
		return nil, model.ErrInvalidStage
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Session
	for _, id := range s.sessionOrder {
		session := s.sessions[id]
		st, _ := session.Stage(stage)
		if !st.Completed {
			continue
		}
		if !since.IsZero() && st.StartedAt.Before(since) {
			continue
		}
		result = append(result, session.Clone())
	}

	storage.SortByStageStart(result, stage)
	return result, nil
}

// Update operations

func (s *Storage) Update(ctx context.Context, playerID model.PlayerID, fn func(uow storage.UnitOfWork) error) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return model.StorageError(err)
		}

		uow := s.begin(playerID)
		if err := fn(uow); err != nil {
			return err
		}

		err := s.commit(uow)
		if errors.Is(err, errVersionMismatch) {
			continue
		}
		return err
	}
	return model.ErrCommitConflict
}

func (s *Storage) begin(playerID model.PlayerID) *unitOfWork {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uow := &unitOfWork{
		store:           s,
		playerID:        playerID,
		sessions:        make(map[model.SessionID]*model.Session),
		sessionVersions: make(map[model.SessionID]int64),
	}
	if p, ok := s.players[playerID]; ok {
		uow.player = p.Clone()
		uow.playerVersion = p.Version
	}
	return uow
}

func (s *Storage) commit(uow *unitOfWork) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Conflict check: everything read must be unchanged
	current, exists := s.players[uow.playerID]
	if exists != (uow.player != nil) {
		return errVersionMismatch
	}
	if exists && current.Version != uow.playerVersion {
		return errVersionMismatch
	}
	for id, version := range uow.sessionVersions {
		session, ok := s.sessions[id]
		if !ok || session.Version != version {
			return errVersionMismatch
		}
	}
	for _, session := range uow.stagedSessions {
		if _, read := uow.sessionVersions[session.ID]; read {
			continue
		}
		if _, ok := s.sessions[session.ID]; ok {
			return model.StorageError(fmt.Errorf("session %s saved without being read", session.ID))
		}
	}

	// Apply
	if uow.stagedPlayer != nil {
		uow.stagedPlayer.Version = uow.playerVersion + 1
		s.players[uow.playerID] = uow.stagedPlayer.Clone()
	}
	for _, session := range uow.stagedSessions {
		base, read := uow.sessionVersions[session.ID]
		if !read {
			s.sessionOrder = append(s.sessionOrder, session.ID)
			session.Seq = int64(len(s.sessionOrder))
		}
		session.Version = base + 1
		s.sessions[session.ID] = session.Clone()
	}
	return nil
}

// Lock operations

func (s *Storage) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if expiry, ok := s.locks[key]; ok && now.Before(expiry) {
		return false, nil
	}
	s.locks[key] = now.Add(ttl)
	return true, nil
}

func (s *Storage) Unlock(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}

// unitOfWork holds snapshots read during one Update attempt and the writes
// staged against them
type unitOfWork struct {
	store    *Storage
	playerID model.PlayerID

	player        *model.Player // nil if the player did not exist at begin
	playerVersion int64

	sessions        map[model.SessionID]*model.Session
	sessionVersions map[model.SessionID]int64

	stagedPlayer   *model.Player
	stagedSessions []*model.Session
}

func (u *unitOfWork) Player() (*model.Player, error) {
	if u.player == nil {
		return nil, model.ErrPlayerNotFound
	}
	return u.player, nil
}

func (u *unitOfWork) Session(id model.SessionID) (*model.Session, error) {
	if session, ok := u.sessions[id]; ok {
		return session, nil
	}

	u.store.mu.RLock()
	stored, ok := u.store.sessions[id]
	var session *model.Session
	if ok {
		session = stored.Clone()
	}
	u.store.mu.RUnlock()

	if !ok {
		return nil, model.ErrSessionNotFound
	}
	u.sessions[id] = session
	u.sessionVersions[id] = session.Version
	return session, nil
}

func (u *unitOfWork) SavePlayer(player *model.Player) {
	u.stagedPlayer = player
}

func (u *unitOfWork) SaveSession(session *model.Session) {
	for i, staged := range u.stagedSessions {
		if staged.ID == session.ID {
			u.stagedSessions[i] = session
			return
		}
	}
	u.stagedSessions = append(u.stagedSessions, session)
}
