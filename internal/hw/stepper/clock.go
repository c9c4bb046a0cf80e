package stepper

import (
	"sync"
	"time"
)

// Clock returns a monotonic timestamp in nanoseconds. Only differences
// between two readings are meaningful.
type Clock interface {
	Nanotime() int64
}

type monotonic struct {
	start time.Time
}

// Nanotime is the full monotonic distance from the process-wide reference
// point, so differences never wrap at a second boundary.
func (m monotonic) Nanotime() int64 {
	return int64(time.Since(m.start))
}

// SystemClock reads the Go runtime's monotonic clock.
var SystemClock Clock = monotonic{start: time.Now()}

// TickingClock is a deterministic Clock: every reading advances time by a
// fixed tick. Sleep advances it by the requested duration. Useful for tests
// and dry runs where no real waiting should happen.
type TickingClock struct {
	mu   sync.Mutex
	now  int64
	tick int64
}

// NewTickingClock returns a clock starting at start that advances by tick
// on each reading.
func NewTickingClock(start int64, tick time.Duration) *TickingClock {
	return &TickingClock{now: start, tick: int64(tick)}
}

func (c *TickingClock) Nanotime() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.tick
	return c.now
}

// Peek returns the current time without advancing it.
func (c *TickingClock) Peek() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the clock by d.
func (c *TickingClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now += int64(d)
	c.mu.Unlock()
}
