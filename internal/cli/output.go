package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/soddle/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Session:
		o.printSession(v)
	case response.Player:
		o.printPlayer(v)
	case response.Leaderboard:
		o.printLeaderboard(v)
	case response.Profile:
		o.printProfile(v)
	case []response.Profile:
		o.printProfiles(v)
	case response.Health:
		o.printf("Status: %s\n", v.Status)
		o.printf("Profiles: %d\n", v.Profiles)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printSession(s response.Session) {
	o.printf("Session: %s\n", s.ID)
	o.printf("Player: %s\n", s.Player)
	o.printf("Competition: %s\n", s.CompetitionID)
	o.printf("Total Score: %d\n", s.TotalScore)
	if s.Completed {
		o.printf("Completed: yes (%d mistakes, %ds)\n", s.MistakesCount, s.TimeInSeconds)
	}
	o.printStage("Stage 1", s.StageOne)
	o.printStage("Stage 2", s.StageTwo)
	if s.Secret != nil {
		o.printf("\nAnswer: %s (%s)\n", s.Secret.Name, s.Secret.ID)
	}
}

func (o *Output) printStage(title string, st response.Stage) {
	status := "in progress"
	if st.Completed {
		status = "solved"
	}
	o.printf("\n%s: %d points, %d guesses, %s\n", title, st.Score, st.GuessCount, status)
	for i, g := range st.Guesses {
		o.printf("  %d. %s %s\n", i+1, g.Guess.Name, describeResult(g.Result))
	}
}

func describeResult(e response.Evaluation) string {
	if e.Match != nil {
		if *e.Match {
			return "[match]"
		}
		return "[no match]"
	}
	if e.Attributes == nil {
		return ""
	}
	a := e.Attributes
	parts := []string{
		"name=" + a.Name,
		"age=" + a.Age,
		"country=" + a.Country,
		"pfp=" + a.PfpType,
		"created=" + a.AccountCreation,
		"followers=" + a.Followers,
		"ecosystem=" + a.Ecosystem,
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (o *Output) printPlayer(p response.Player) {
	o.printf("Player: %s\n", p.PublicKey)
	if p.CurrentSessionID != nil {
		o.printf("Active Session: %s\n", *p.CurrentSessionID)
	} else {
		o.printf("Active Session: none\n")
	}
	o.printf("Sessions Played: %d\n", len(p.History))
}

func (o *Output) printLeaderboard(l response.Leaderboard) {
	o.printf("Leaderboard: %s, stage %d\n", l.Window, l.Stage)
	if len(l.Entries) == 0 {
		o.printf("  (no entries)\n")
		return
	}
	for _, e := range l.Entries {
		o.printf("  %3d. %-44s %6d points (%d games)\n", e.Rank, e.Player, e.TotalScore, e.GamesPlayed)
	}
}

func (o *Output) printProfile(p response.Profile) {
	o.printf("%s (%s)\n", p.Name, p.ID)
	o.printf("  Age: %d\n", p.Age)
	o.printf("  Country: %s\n", p.Country)
	o.printf("  Picture: %s\n", p.PfpType)
	o.printf("  Followers: %d\n", p.Followers)
	o.printf("  Ecosystem: %s\n", p.Ecosystem)
}

func (o *Output) printProfiles(ps []response.Profile) {
	for _, p := range ps {
		o.printf("%-20s %s\n", p.ID, p.Name)
	}
}
