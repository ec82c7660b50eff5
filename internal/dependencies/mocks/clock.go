package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/soddle/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing. Tickers only fire
// when the clock is moved with Advance or Set.
type MockClock struct {
	mu          sync.RWMutex
	CurrentTime time.Time
	tickers     []*mockTicker
}

type mockTicker struct {
	period time.Duration
	next   time.Time
	ch     chan time.Time
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CurrentTime
}

// NewTicker registers a ticker driven by Advance and Set
func (c *MockClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	if d <= 0 {
		panic("non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t := &mockTicker{period: d, next: c.CurrentTime.Add(d), ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)

	stop := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, other := range c.tickers {
			if other == t {
				c.tickers = append(c.tickers[:i], c.tickers[i+1:]...)
				return
			}
		}
	}
	return t.ch, stop
}

// Tickers returns the number of live tickers
func (c *MockClock) Tickers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tickers)
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
	c.fire()
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = t
	c.fire()
}

// fire delivers due ticks. Like time.Ticker, ticks are dropped for a slow
// receiver. Caller holds mu.
func (c *MockClock) fire() {
	for _, t := range c.tickers {
		if t.next.After(c.CurrentTime) {
			continue
		}
		select {
		case t.ch <- c.CurrentTime:
		default:
		}
		for !t.next.After(c.CurrentTime) {
			t.next = t.next.Add(t.period)
		}
	}
}
