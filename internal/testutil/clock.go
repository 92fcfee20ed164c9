package testutil

import "sync"

// DeterministicClock is a resettable logical clock for tests.
//
// It satisfies host.Sequencer, so a harness can hand the same clock to a
// fresh runtime for every scenario and get identical seq values each run.
// The first call to Next returns 1.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock positioned at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next advances the clock and returns the new value.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last value handed out, or 0.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Advance moves the clock to seq if it is behind.
func (c *DeterministicClock) Advance(seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq < seq {
		c.seq = seq
	}
}

// Reset moves the clock back to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
