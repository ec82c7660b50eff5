package request

import (
	"github.com/mcoot/soddle/internal/model"
)

// StartSessionRequest is the request body for starting a stage
type StartSessionRequest struct {
	PublicKey string `json:"public_key"`
	Stage     int    `json:"stage"`
}

// Profile is a guessed profile
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

// ToModel converts the wire profile
func (p Profile) ToModel() model.Profile {
	return model.Profile{
		ID:              model.ProfileID(p.ID),
		Name:            p.Name,
		Age:             p.Age,
		Country:         p.Country,
		PfpType:         p.PfpType,
		AccountCreation: p.AccountCreation,
		Followers:       p.Followers,
		Ecosystem:       p.Ecosystem,
	}
}

// GuessRequest is the request body for submitting a guess. The guess is
// either a catalog profile named by ProfileID or spelled out inline.
type GuessRequest struct {
	Stage     int      `json:"stage"`
	ProfileID string   `json:"profile_id,omitempty"`
	Guess     *Profile `json:"guess,omitempty"`
}
