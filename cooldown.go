package injection

import (
	"sync"
	"time"
)

// Cleanup thresholds for the cooldown cache
const (
	cooldownCleanupAge       = 15 * time.Minute
	cooldownCleanupThreshold = 1000
)

// Cooldown suppresses repeated processing of the same path within a window.
// The applier is idempotent, so suppression is purely a noise reduction: a
// storm of events on one file collapses to a single apply per window.
type Cooldown struct {
	window   time.Duration
	lastSeen map[string]time.Time
	mu       sync.Mutex
}

// NewCooldown creates a cooldown tracker with the given window. A zero or
// negative window lets everything through.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window:   window,
		lastSeen: make(map[string]time.Time),
	}
}

// Allow reports whether the path may be processed now, recording the attempt
// when it is allowed
func (c *Cooldown) Allow(path string, now time.Time) bool {
	if c.window <= 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.lastSeen[path]; ok && now.Sub(last) < c.window {
		return false
	}
	c.lastSeen[path] = now

	if len(c.lastSeen) > cooldownCleanupThreshold {
		c.cleanupLocked(now, cooldownCleanupAge)
	}
	return true
}

// Cleanup removes entries older than maxAge and returns the count removed
func (c *Cooldown) Cleanup(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanupLocked(time.Now(), maxAge)
}

func (c *Cooldown) cleanupLocked(now time.Time, maxAge time.Duration) int {
	var toDelete []string
	for path, last := range c.lastSeen {
		if now.Sub(last) > maxAge {
			toDelete = append(toDelete, path)
		}
	}
	for _, path := range toDelete {
		delete(c.lastSeen, path)
	}
	return len(toDelete)
}

// Reset clears the tracker's history
func (c *Cooldown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = make(map[string]time.Time)
}
