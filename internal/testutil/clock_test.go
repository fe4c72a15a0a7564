package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeqClock(t *testing.T) {
	clock := NewSeqClock(0)
	assert.Equal(t, int64(0), clock.Last())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, []int64{2, 3, 4}, clock.Take(3))
	assert.Equal(t, int64(4), clock.Last())
	assert.Empty(t, clock.Take(0))
}

func TestSeqClockContinuesAfter(t *testing.T) {
	clock := NewSeqClock(41)
	assert.Equal(t, int64(42), clock.Next())
}

func TestSeqClockRepeatable(t *testing.T) {
	a, b := NewSeqClock(0), NewSeqClock(0)
	assert.Equal(t, a.Take(50), b.Take(50))
}

func TestSeqClockConcurrent(t *testing.T) {
	const workers, calls = 50, 200
	clock := NewSeqClock(0)

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool, workers*calls)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := 0; c < calls; c++ {
				seq := clock.Next()
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), clock.Last())
}
