package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Update runs each unit of work under WATCH on the player key and every
// session key it reads, then commits with MULTI/EXEC.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = storage.DefaultMaxAttempts
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getPlayer(ctx, s.client, id)
}

func getPlayer(ctx context.Context, c redis.Cmdable, id model.PlayerID) (*model.Player, error) {
	data, err := c.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, model.StorageError(err)
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, model.StorageError(err)
	}
	return &player, nil
}

// Session operations

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return getSession(ctx, s.client, id)
}

func getSession(ctx context.Context, c redis.Cmdable, id model.SessionID) (*model.Session, error) {
	data, err := c.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, model.StorageError(err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, model.StorageError(err)
	}
	return &session, nil
}

func (s *Storage) CompletedSessions(ctx context.Context, stage model.Stage, since time.Time) ([]*model.Session, error) {
	if !stage.Valid() {
		return nil, model.ErrInvalidStage
	}

	lower := "-inf"
	if !since.IsZero() {
		lower = strconv.FormatInt(since.UnixMilli(), 10)
	}

	ids, err := s.client.ZRangeByScore(ctx, completedIndexKey(stage), &redis.ZRangeBy{
		Min: lower,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, model.StorageError(err)
	}

	if len(ids) == 0 {
		return []*model.Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(model.SessionID(id))
	}

	// Fetch all sessions in one round trip using MGET
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, model.StorageError(err)
	}

	sessions := make([]*model.Session, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var session model.Session
		if err := json.Unmarshal([]byte(val.(string)), &session); err != nil {
			return nil, model.StorageError(err)
		}
		st, _ := session.Stage(stage)
		if !st.Completed || st.StartedAt.Before(since) {
			continue
		}
		sessions = append(sessions, &session)
	}

	// The index has millisecond resolution and orders equal scores by member
	storage.SortByStageStart(sessions, stage)
	return sessions, nil
}

// Update operations

// fnError carries an error returned by the caller's unit of work through
// client.Watch so it is not mistaken for a backend failure
type fnError struct {
	err error
}

func (e *fnError) Error() string { return e.err.Error() }
func (e *fnError) Unwrap() error { return e.err }

func (s *Storage) Update(ctx context.Context, playerID model.PlayerID, fn func(uow storage.UnitOfWork) error) error {
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			uow := &unitOfWork{
				ctx:      ctx,
				tx:       tx,
				playerID: playerID,
				sessions: make(map[model.SessionID]*model.Session),
			}
			if err := uow.load(); err != nil {
				return err
			}
			if err := fn(uow); err != nil {
				return &fnError{err: err}
			}
			return uow.commit()
		}, playerKey(playerID))

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		var fe *fnError
		if errors.As(err, &fe) {
			return fe.err
		}
		if err != nil && !errors.Is(err, model.ErrStorage) {
			return model.StorageError(err)
		}
		return err
	}
	return model.ErrCommitConflict
}

// Lock operations

func (s *Storage) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(key), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, model.StorageError(err)
	}
	return ok, nil
}

func (s *Storage) Unlock(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, lockKey(key)).Err(); err != nil {
		return model.StorageError(err)
	}
	return nil
}

// unitOfWork reads through a WATCHed transaction and stages writes for EXEC
type unitOfWork struct {
	ctx      context.Context
	tx       *redis.Tx
	playerID model.PlayerID

	player   *model.Player // nil if the player did not exist at load
	sessions map[model.SessionID]*model.Session

	stagedPlayer   *model.Player
	stagedSessions []*model.Session
}

func (u *unitOfWork) load() error {
	player, err := getPlayer(u.ctx, u.tx, u.playerID)
	if err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
		return err
	}
	u.player = player
	return nil
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

	if err := u.tx.Watch(u.ctx, sessionKey(id)).Err(); err != nil {
		return nil, model.StorageError(err)
	}
	session, err := getSession(u.ctx, u.tx, id)
	if err != nil {
		return nil, err
	}
	u.sessions[id] = session
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

func (u *unitOfWork) commit() error {
	// Sessions created in this unit of work must not already exist
	for _, session := range u.stagedSessions {
		if _, read := u.sessions[session.ID]; read {
			continue
		}
		key := sessionKey(session.ID)
		if err := u.tx.Watch(u.ctx, key).Err(); err != nil {
			return model.StorageError(err)
		}
		n, err := u.tx.Exists(u.ctx, key).Result()
		if err != nil {
			return model.StorageError(err)
		}
		if n > 0 {
			return model.StorageError(fmt.Errorf("session %s saved without being read", session.ID))
		}
		seq, err := u.tx.Incr(u.ctx, sessionSeqKey()).Result()
		if err != nil {
			return model.StorageError(err)
		}
		session.Seq = seq
	}

	type write struct {
		key  string
		data []byte
	}
	var writes []write

	if u.stagedPlayer != nil {
		u.stagedPlayer.Version++
		data, err := json.Marshal(u.stagedPlayer)
		if err != nil {
			return model.StorageError(err)
		}
		writes = append(writes, write{key: playerKey(u.playerID), data: data})
	}
	for _, session := range u.stagedSessions {
		session.Version++
		data, err := json.Marshal(session)
		if err != nil {
			return model.StorageError(err)
		}
		writes = append(writes, write{key: sessionKey(session.ID), data: data})
	}

	_, err := u.tx.TxPipelined(u.ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			pipe.Set(u.ctx, w.key, w.data, 0) // sessions are archival, no TTL
		}
		for _, session := range u.stagedSessions {
			for _, stage := range []model.Stage{model.StageOne, model.StageTwo} {
				st, _ := session.Stage(stage)
				idx := completedIndexKey(stage)
				if st.Completed {
					pipe.ZAdd(u.ctx, idx, redis.Z{
						Score:  float64(st.StartedAt.UnixMilli()),
						Member: string(session.ID),
					})
				} else {
					pipe.ZRem(u.ctx, idx, string(session.ID))
				}
			}
		}
		return nil
	})
	return err
}
