package ledger

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/soddle/internal/model"
)

const addressSeed = "game_session"

// DeriveAddress returns the deterministic ledger address holding a player's
// scores for one competition
func DeriveAddress(programID string, player model.PlayerID, competitionID string) string {
	h, _ := blake2b.New256(nil) // only fails for oversized keys
	h.Write([]byte(addressSeed))
	h.Write([]byte(player))
	h.Write([]byte(competitionID))
	h.Write([]byte(programID))
	return hex.EncodeToString(h.Sum(nil))
}
