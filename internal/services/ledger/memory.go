package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mcoot/soddle/internal/model"
)

// ErrInjected is returned by MemoryClient while failures are injected
var ErrInjected = errors.New("ledger unavailable (injected)")

// Record is one score written to the in-memory ledger
type Record struct {
	Receipt string
	Address string
	Request ScoreRequest
}

// MemoryClient is an in-process ledger for local runs and tests
type MemoryClient struct {
	mu sync.Mutex

	competition model.Competition
	records     []Record
	rotations   int

	submitFailures   int
	competitionFails bool
	submitCalls      int
	competitionReads int
}

// Ensure MemoryClient implements Client
var _ Client = (*MemoryClient)(nil)

// NewMemoryClient creates an in-memory ledger with initial as the active competition
func NewMemoryClient(initial model.Competition) *MemoryClient {
	return &MemoryClient{
		competition: initial,
	}
}

func (c *MemoryClient) SubmitScore(ctx context.Context, address string, req ScoreRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitCalls++
	if c.submitFailures != 0 {
		if c.submitFailures > 0 {
			c.submitFailures--
		}
		return "", ErrInjected
	}

	receipt := fmt.Sprintf("rcpt-%d", len(c.records)+1)
	c.records = append(c.records, Record{
		Receipt: receipt,
		Address: address,
		Request: req,
	})
	return receipt, nil
}

func (c *MemoryClient) ActiveCompetition(ctx context.Context) (model.Competition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.competitionReads++
	if c.competitionFails {
		return model.Competition{}, ErrInjected
	}
	return c.competition, nil
}

func (c *MemoryClient) RotateCompetition(ctx context.Context, comp model.Competition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.competition.ID == comp.ID {
		return nil
	}
	c.competition = comp
	c.rotations++
	return nil
}

// FailSubmissions makes the next n SubmitScore calls fail. A negative n fails
// every call until reset with FailSubmissions(0).
func (c *MemoryClient) FailSubmissions(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitFailures = n
}

// FailCompetitionReads toggles failure of ActiveCompetition
func (c *MemoryClient) FailCompetitionReads(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.competitionFails = fail
}

// Records returns a copy of every score written
func (c *MemoryClient) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// SubmitCalls returns how many SubmitScore calls were made, including failures
func (c *MemoryClient) SubmitCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitCalls
}

// CompetitionReads returns how many ActiveCompetition calls were made
func (c *MemoryClient) CompetitionReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.competitionReads
}

// Rotations returns how many rotations changed the active competition
func (c *MemoryClient) Rotations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotations
}
