package instruction

import (
	"sync"
	"time"
)

// MonotonicClientIDGenerator produces strictly increasing client order ids
// based on the wall clock in milliseconds. Ids stay meaningful in UIs that
// render them as timestamps, and a burst of orders inside one millisecond
// still gets distinct ids.
type MonotonicClientIDGenerator struct {
	mu   sync.Mutex
	last uint64
	now  func() time.Time
}

func NewMonotonicClientIDGenerator() *MonotonicClientIDGenerator {
	return &MonotonicClientIDGenerator{now: time.Now}
}

func (g *MonotonicClientIDGenerator) GenerateID() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := uint64(g.now().UnixMilli())
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
