package proxy

import "sync"

// DurationCache maps queue-entry keys to media duration in whole seconds.
// Populated by the proxy when it observes an mvhd box; read by the status
// poller. Never evicted within an engine lifetime.
type DurationCache struct {
	mu        sync.Mutex
	durations map[string]int
}

func NewDurationCache() *DurationCache {
	return &DurationCache{durations: make(map[string]int)}
}

// Get returns the cached duration and whether it is known.
func (c *DurationCache) Get(key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.durations[key]
	return d, ok
}

func (c *DurationCache) Set(key string, seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations[key] = seconds
}
