package sim

import (
	"sync"
	"time"

	"github.com/dcsim/hdfssim/cmn/mono"
)

// Clock is the schedule(dt, fn) primitive of §6.1, backed by the real
// wall clock (time.AfterFunc) rather than a virtual-time priority queue,
// the same "real OS threads" mapping §5 sanctions for actor concurrency.
// It also hands out mono.Time stamps relative to its own creation, which
// the client samples to fill the per-file client.Result.Elapsed field.
type Clock struct {
	start time.Time
	mu    sync.Mutex
	timers []*time.Timer
}

func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns the wall-clock time elapsed since the clock was created, as
// a mono.Time.
func (c *Clock) Now() mono.Time {
	return mono.FromDuration(time.Since(c.start))
}

// Schedule runs fn after d elapses. The returned Cancel func aborts fn if
// it has not yet fired, used by the client's stop-time cancellation
// (§4.3: "the client closes all its connections and abandons outstanding
// blocks").
func (c *Clock) Schedule(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, fn)
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return func() { t.Stop() }
}

// StopAll cancels every timer registered through Schedule that has not
// yet fired; used when tearing down a scenario run.
func (c *Clock) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.timers {
		t.Stop()
	}
}
