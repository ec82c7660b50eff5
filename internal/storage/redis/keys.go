package redis

import (
	"fmt"

	"github.com/mcoot/soddle/internal/model"
)

// Key prefix for all session engine data
const keyPrefix = "soddle"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// completedIndexKey returns the Redis key for the ZSET of sessions whose
// stage is completed, scored by the stage start in unix milliseconds
func completedIndexKey(stage model.Stage) string {
	return fmt.Sprintf("%s:idx:completed:%s", keyPrefix, stage)
}

// sessionSeqKey returns the Redis key of the counter numbering new sessions
func sessionSeqKey() string {
	return fmt.Sprintf("%s:seq:session", keyPrefix)
}

// lockKey returns the Redis key for a named lock
func lockKey(name string) string {
	return fmt.Sprintf("%s:lock:%s", keyPrefix, name)
}
