// Package metrics provides reporters for the build counters.
package metrics

import "sync"

// Counter names reported by a BAR build.
const (
	BuildSucceeded    = "bargen.success"
	BuildFailedPrefix = "bargen.failed."
)

// Nop discards every counter.
type Nop struct{}

// Counter implements domain.MetricsReporter.
func (Nop) Counter(string) {}

// Counters keeps counter values in memory.
type Counters struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]int64)}
}

// Counter increments name by one.
func (c *Counters) Counter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[name]++
}

// Get returns the value of name.
func (c *Counters) Get(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.values[name]
}

// Snapshot returns a copy of every counter.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int64, len(c.values))
	for name, v := range c.values {
		out[name] = v
	}

	return out
}
