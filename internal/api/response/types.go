package response

import (
	"time"

	"github.com/mcoot/soddle/internal/model"
)

// Profile represents a profile in API responses
type Profile struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Age             int    `json:"age"`
	Country         string `json:"country"`
	PfpType         string `json:"pfp_type"`
	AccountCreation int64  `json:"account_creation"`
	Followers       int64  `json:"followers"`
	Ecosystem       string `json:"ecosystem"`
}

// ProfileFromModel converts model.Profile
func ProfileFromModel(p model.Profile) Profile {
	return Profile{
		ID:              string(p.ID),
		Name:            p.Name,
		Age:             p.Age,
		Country:         p.Country,
		PfpType:         p.PfpType,
		AccountCreation: p.AccountCreation,
		Followers:       p.Followers,
		Ecosystem:       p.Ecosystem,
	}
}

// ProfilesFromModel converts a list of profiles
func ProfilesFromModel(ps []model.Profile) []Profile {
	out := make([]Profile, len(ps))
	for i, p := range ps {
		out[i] = ProfileFromModel(p)
	}
	return out
}

// AttributeResults is the per-attribute outcome of a stage one guess
type AttributeResults struct {
	Name            string `json:"name"`
	Age             string `json:"age"`
	Country         string `json:"country"`
	PfpType         string `json:"pfp_type"`
	AccountCreation string `json:"account_creation"`
	Followers       string `json:"followers"`
	Ecosystem       string `json:"ecosystem"`
}

// Evaluation is the result of one guess. Attributes is set for stage one and
// Match for stage two.
type Evaluation struct {
	Stage      int               `json:"stage"`
	Attributes *AttributeResults `json:"attributes,omitempty"`
	Match      *bool             `json:"match,omitempty"`
}

// EvaluationFromModel converts model.Evaluation
func EvaluationFromModel(e model.Evaluation) Evaluation {
	out := Evaluation{Stage: int(e.Stage)}
	switch e.Stage {
	case model.StageOne:
		if a := e.Attributes; a != nil {
			out.Attributes = &AttributeResults{
				Name:            string(a.Name),
				Age:             string(a.Age),
				Country:         string(a.Country),
				PfpType:         string(a.PfpType),
				AccountCreation: string(a.AccountCreation),
				Followers:       string(a.Followers),
				Ecosystem:       string(a.Ecosystem),
			}
		}
	case model.StageTwo:
		match := e.Match
		out.Match = &match
	}
	return out
}

// Guess is one entry in a stage's guess list
type Guess struct {
	Guess     Profile    `json:"guess"`
	Result    Evaluation `json:"result"`
	Solved    bool       `json:"solved"`
	Score     int        `json:"score"`
	GuessedAt time.Time  `json:"guessed_at"`
}

// Stage is one stage of a session
type Stage struct {
	Score          int       `json:"score"`
	Completed      bool      `json:"completed"`
	GuessCount     int       `json:"guess_count"`
	Guesses        []Guess   `json:"guesses"`
	StartedAt      time.Time `json:"started_at"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
}

// StageFromModel converts model.StageState
func StageFromModel(st model.StageState) Stage {
	guesses := make([]Guess, len(st.Guesses))
	for i, g := range st.Guesses {
		guesses[i] = Guess{
			Guess:     ProfileFromModel(g.Guess),
			Result:    EvaluationFromModel(g.Result),
			Solved:    g.Solved,
			Score:     g.Score,
			GuessedAt: g.GuessedAt,
		}
	}
	return Stage{
		Score:          st.Score,
		Completed:      st.Completed,
		GuessCount:     st.GuessCount,
		Guesses:        guesses,
		StartedAt:      st.StartedAt,
		ElapsedSeconds: st.ElapsedSeconds,
	}
}

// Session represents a session in API responses
type Session struct {
	ID            string    `json:"id"`
	Player        string    `json:"player"`
	CompetitionID string    `json:"competition_id"`
	StageOne      Stage     `json:"stage_one"`
	StageTwo      Stage     `json:"stage_two"`
	LastStage     int       `json:"last_stage"`
	TotalScore    int       `json:"total_score"`
	Completed     bool      `json:"completed"`
	MistakesCount int       `json:"mistakes_count"`
	TimeInSeconds int       `json:"time_in_seconds"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Secret is only revealed once the session is completed
	Secret *Profile `json:"secret,omitempty"`
}

// SessionFromModel converts model.Session, hiding the secret until completion
func SessionFromModel(s *model.Session) Session {
	var secret *Profile
	if s.Completed {
		p := ProfileFromModel(s.Profile)
		secret = &p
	}
	return Session{
		ID:            string(s.ID),
		Player:        string(s.Player),
		CompetitionID: s.CompetitionID,
		StageOne:      StageFromModel(s.One),
		StageTwo:      StageFromModel(s.Two),
		LastStage:     int(s.LastStage),
		TotalScore:    s.TotalScore,
		Completed:     s.Completed,
		MistakesCount: s.MistakesCount,
		TimeInSeconds: s.TimeInSeconds,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Secret:        secret,
	}
}

// Player represents a player in API responses
type Player struct {
	PublicKey        string    `json:"public_key"`
	CurrentSessionID *string   `json:"current_session_id"`
	History          []string  `json:"history"`
	CreatedAt        time.Time `json:"created_at"`
}

// PlayerFromModel converts model.Player
func PlayerFromModel(p *model.Player) Player {
	var current *string
	if p.HasActiveSession() {
		id := string(p.CurrentSessionID)
		current = &id
	}
	history := make([]string, len(p.History))
	for i, id := range p.History {
		history[i] = string(id)
	}
	return Player{
		PublicKey:        string(p.ID),
		CurrentSessionID: current,
		History:          history,
		CreatedAt:        p.CreatedAt,
	}
}

// LeaderboardEntry is one ranked player
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Player      string `json:"player"`
	TotalScore  int    `json:"total_score"`
	GamesPlayed int    `json:"games_played"`
}

// Leaderboard represents a leaderboard in API responses
type Leaderboard struct {
	Window  string             `json:"window"`
	Stage   int                `json:"stage"`
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardFromModel converts ranked entries
func LeaderboardFromModel(window model.Window, stage model.Stage, entries []model.LeaderboardEntry) Leaderboard {
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{
			Rank:        i + 1,
			Player:      string(e.Player),
			TotalScore:  e.TotalScore,
			GamesPlayed: e.GamesPlayed,
		}
	}
	return Leaderboard{
		Window:  string(window),
		Stage:   int(stage),
		Entries: out,
	}
}

// Health status values
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// Health is the health check body
type Health struct {
	Status   string `json:"status"`
	Profiles int    `json:"profiles"`
}
