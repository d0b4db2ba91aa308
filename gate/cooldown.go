package gate

import (
	"sync"
	"time"
)

// Cooldown is a single process-wide rate limiter. The zero value is not
// usable; build one with NewCooldown.
type Cooldown struct {
	mu       sync.Mutex
	duration time.Duration
	last     time.Time
}

func NewCooldown(d time.Duration) *Cooldown {
	return &Cooldown{duration: d}
}

// TryAccept records now as the last accepted time when at least the cooldown
// duration has passed since the previous acceptance. Otherwise it reports how
// long the caller still has to wait; that value is always positive.
func (c *Cooldown) TryAccept(now time.Time) (bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.last.IsZero() {
		if elapsed := now.Sub(c.last); elapsed < c.duration {
			return false, c.duration - elapsed
		}
	}
	c.last = now
	return true, 0
}

// Last returns the time of the most recent accepted command, or the zero
// time if nothing was accepted yet.
func (c *Cooldown) Last() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Duration is the configured minimum spacing.
func (c *Cooldown) Duration() time.Duration {
	return c.duration
}
