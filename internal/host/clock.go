package host

import "sync/atomic"

// Sequencer hands out strictly increasing logical timestamps.
// testutil.DeterministicClock satisfies it.
//
// Advance moves the clock forward so that Next returns more than seq; it
// never moves it back. The runtime calls it with the store's last seq
// inside each write transaction, so seqs follow commit order even when
// several processes share one database.
type Sequencer interface {
	Next() int64
	Current() int64
	Advance(seq int64)
}

// Clock is a monotonic logical clock for slot and instruction ordering.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The Runtime still serializes callers, so in practice one goroutine
// calls Next at a time.
type Clock struct {
	seq atomic.Int64
}

// NewClockAt creates a clock positioned at start. The runtime uses this to
// resume from the store's last seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Advance moves the clock to seq if it is behind.
func (c *Clock) Advance(seq int64) {
	for {
		cur := c.seq.Load()
		if cur >= seq || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}
