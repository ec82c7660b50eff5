package model

import "time"

// Competition is a time-boxed epoch that scopes sessions and leaderboards
type Competition struct {
	ID        string
	StartTime time.Time
	EndTime   time.Time
}

// Active reports whether t falls inside the competition window
func (c Competition) Active(t time.Time) bool {
	return !t.Before(c.StartTime) && t.Before(c.EndTime)
}
