package model

import (
	"slices"
	"time"
)

// PlayerID uniquely identifies a player across the system (their public key)
type PlayerID string

// Player is created on first contact and never deleted
type Player struct {
	ID               PlayerID
	CurrentSessionID SessionID   // empty when the player has no active session
	History          []SessionID // retired sessions, oldest first, no duplicates
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Version is bumped on every committed write and used for optimistic concurrency
	Version int64
}

// NewPlayer creates a player record for first contact
func NewPlayer(id PlayerID, now time.Time) *Player {
	return &Player{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasActiveSession reports whether the player currently references a session
func (p *Player) HasActiveSession() bool {
	return p.CurrentSessionID != ""
}

// Retire clears the active session reference and records it in the history
func (p *Player) Retire(id SessionID) {
	if p.CurrentSessionID == id {
		p.CurrentSessionID = ""
	}
	if id != "" && !slices.Contains(p.History, id) {
		p.History = append(p.History, id)
	}
}

// Clone returns a deep copy
func (p *Player) Clone() *Player {
	c := *p
	c.History = slices.Clone(p.History)
	return &c
}
