package random

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int
}

// ChaChaRandom implements Random with a ChaCha8 stream seeded from crypto/rand.
// Secret selection must not be predictable from earlier sessions.
type ChaChaRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a ChaChaRandom with a fresh seed
func New() *ChaChaRandom {
	var seed [32]byte
	_, _ = crand.Read(seed[:]) // never returns an error since Go 1.24
	return NewSeeded(seed)
}

// NewSeeded creates a ChaChaRandom with a fixed seed, for reproducible runs
func NewSeeded(seed [32]byte) *ChaChaRandom {
	return &ChaChaRandom{rng: rand.New(rand.NewChaCha8(seed))}
}

// Intn returns a random int in [0, n), or 0 when n <= 0
func (r *ChaChaRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}
