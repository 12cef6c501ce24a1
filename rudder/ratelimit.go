package rudder

import (
	"sync"
	"time"
)

// PerEventCap caps the number of events per minute for each event kind.
// Counters run in fixed 60-second windows that reset lazily on the first
// event after expiry.
type PerEventCap struct {
	perMinute int
	now       func() time.Time

	mu       sync.Mutex
	counters map[string]*eventCounter
}

type eventCounter struct {
	count       int
	windowStart time.Time
}

// NewPerEventCap creates a rate cap allowing perMinute events per kind.
func NewPerEventCap(perMinute int) *PerEventCap {
	return &PerEventCap{
		perMinute: perMinute,
		now:       time.Now,
		counters:  make(map[string]*eventCounter),
	}
}

// Allow reports whether one more event of this kind fits in the current
// window, counting it if so.
func (c *PerEventCap) Allow(kind string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ec, ok := c.counters[kind]
	if !ok {
		ec = &eventCounter{windowStart: now}
		c.counters[kind] = ec
	}
	if now.Sub(ec.windowStart) >= time.Minute {
		ec.count = 0
		ec.windowStart = now
	}
	if ec.count >= c.perMinute {
		return false
	}
	ec.count++
	return true
}
