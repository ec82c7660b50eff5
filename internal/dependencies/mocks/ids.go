package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/soddle/internal/dependencies/ids"
)

// MockIDs is a mock implementation of ids.Generator returning sequential ids
type MockIDs struct {
	mu     sync.Mutex
	Prefix string
	next   int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a MockIDs producing prefix-1, prefix-2, ...
func NewMockIDs(prefix string) *MockIDs {
	return &MockIDs{Prefix: prefix}
}

// NewID returns the next sequential id
func (g *MockIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.Prefix, g.next)
}
