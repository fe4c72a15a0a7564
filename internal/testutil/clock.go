package testutil

import "sync/atomic"

// SeqClock hands out the logical seq values that cache records are ordered
// by. It never reads the wall clock, so two runs of the same scenario write
// identical seqs. Safe for concurrent use.
type SeqClock struct {
	last atomic.Int64
}

// NewSeqClock returns a clock whose first Next is after+1. Pass 0 for a
// fresh store, or the store's highest seq to continue after it.
func NewSeqClock(after int64) *SeqClock {
	c := &SeqClock{}
	c.last.Store(after)
	return c
}

// Next advances the clock and returns the new seq.
func (c *SeqClock) Next() int64 {
	return c.last.Add(1)
}

// Last returns the most recent seq handed out.
func (c *SeqClock) Last() int64 {
	return c.last.Load()
}

// Take returns the next n seqs in order.
func (c *SeqClock) Take(n int) []int64 {
	seqs := make([]int64, n)
	for i := range seqs {
		seqs[i] = c.Next()
	}
	return seqs
}
