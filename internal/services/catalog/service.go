package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/mcoot/soddle/internal/dependencies/random"
	"github.com/mcoot/soddle/internal/model"
)

// Service holds the secret-profile catalog sessions are drawn from
type Service struct {
	random random.Random

	mu       sync.RWMutex
	profiles []model.Profile
	byID     map[model.ProfileID]int
	loaded   bool
}

// New creates a new catalog Service
func New(random random.Random) *Service {
	return &Service{
		random: random,
		byID:   make(map[model.ProfileID]int),
	}
}

// profileEntry is the on-disk shape of one catalog profile. Followers may be
// given exactly or as a bucket label.
type profileEntry struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Age             int    `json:"age"`
	Country         string `json:"country"`
	PfpType         string `json:"pfp_type"`
	AccountCreation int64  `json:"account_creation"`
	Followers       *int64 `json:"followers,omitempty"`
	FollowersLabel  string `json:"followers_label,omitempty"`
	Ecosystem       string `json:"ecosystem"`
}

func (e profileEntry) toModel() model.Profile {
	followers := FollowersFromLabel(e.FollowersLabel)
	if e.Followers != nil {
		followers = *e.Followers
	}
	return model.Profile{
		ID:              model.ProfileID(e.ID),
		Name:            e.Name,
		Age:             e.Age,
		Country:         e.Country,
		PfpType:         e.PfpType,
		AccountCreation: e.AccountCreation,
		Followers:       followers,
		Ecosystem:       e.Ecosystem,
	}
}

// FollowersFromLabel maps a follower bucket label to a representative count
func FollowersFromLabel(label string) int64 {
	switch label {
	case "over 5M":
		return 5_000_000
	case "3-5M":
		return 4_000_000
	case "1-3M":
		return 2_000_000
	case "500k-1M":
		return 750_000
	default: // "0-500k"
		return 250_000
	}
}

// LoadFromFile loads the catalog from a JSON array of profiles
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var entries []profileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse catalog %s: %w", path, err)
	}

	profiles := make([]model.Profile, 0, len(entries))
	for _, e := range entries {
		profiles = append(profiles, e.toModel())
	}
	return s.LoadProfiles(profiles)
}

// LoadProfiles replaces the catalog (useful for testing)
func (s *Service) LoadProfiles(profiles []model.Profile) error {
	byID := make(map[model.ProfileID]int, len(profiles))
	for i, p := range profiles {
		if p.ID == "" {
			return fmt.Errorf("%w: profile %d has no id", model.ErrInvalidInput, i)
		}
		if _, dup := byID[p.ID]; dup {
			return fmt.Errorf("%w: duplicate profile id %s", model.ErrInvalidInput, p.ID)
		}
		byID[p.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = slices.Clone(profiles)
	s.byID = byID
	s.loaded = true
	return nil
}

// Random picks a profile to become a session's secret
func (s *Service) Random() (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded || len(s.profiles) == 0 {
		return model.Profile{}, model.ErrCatalogNotLoaded
	}
	return s.profiles[s.random.Intn(len(s.profiles))], nil
}

// Get returns the profile with the given id
func (s *Service) Get(id model.ProfileID) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return model.Profile{}, model.ErrProfileNotFound
	}
	return s.profiles[i], nil
}

// List returns every profile in catalog order
func (s *Service) List() []model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.profiles)
}

// IsLoaded returns whether the catalog has been loaded
func (s *Service) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Count returns the number of profiles in the catalog
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
