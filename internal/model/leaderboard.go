package model

// Window selects the time range a leaderboard covers
type Window string

const (
	WindowDaily     Window = "daily"
	WindowWeekly    Window = "weekly"
	WindowMonthly   Window = "monthly"
	WindowYesterday Window = "yesterday"
	WindowAllTime   Window = "alltime"
)

// ParseWindow converts a wire value into a Window
func ParseWindow(s string) (Window, error) {
	switch w := Window(s); w {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowYesterday, WindowAllTime:
		return w, nil
	default:
		return "", ErrInvalidWindow
	}
}

// LeaderboardEntry is one ranked player
type LeaderboardEntry struct {
	Player      PlayerID
	TotalScore  int
	GamesPlayed int
}
