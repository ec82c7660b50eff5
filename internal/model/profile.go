package model

// ProfileID identifies a secret profile in the catalog
type ProfileID string

// Profile is the attribute set a session is scored against. Guesses use the
// same shape: stage one compares the attributes, stage two compares the ID.
type Profile struct {
	ID              ProfileID
	Name            string
	Age             int
	Country         string
	PfpType         string
	AccountCreation int64 // epoch seconds
	Followers       int64
	Ecosystem       string
}
