// Package sequence assigns per-partition monotonic sequence numbers to
// published events, so consumers can detect duplicates and gaps.
package sequence

import "sync"

// Counter hands out sequence numbers starting at 1 per partition key. It is
// safe for concurrent use. State lives in memory, matching the engine's
// single-process scope; a restart starts new sequence runs, which consumers
// already tolerate as a producer restart.
type Counter struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewCounter() *Counter {
	return &Counter{last: make(map[string]int64)}
}

// Next atomically increments and returns the next sequence for a partition.
func (c *Counter) Next(partitionKey string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[partitionKey]++
	return c.last[partitionKey]
}
