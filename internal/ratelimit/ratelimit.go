package ratelimit

import (
	"sync"
	"time"
)

type counters struct {
	hourStart time.Time
	hourCount int
	dayStart  time.Time
	dayCount  int
	lastSeen  time.Time
}

// Limiter enforces per-key hourly and daily request caps using fixed
// windows held in process memory. A counter resets when the clock
// crosses into a new window. State is advisory: it is not shared
// across instances and is lost on restart.
type Limiter struct {
	mu        sync.Mutex
	entries   map[string]*counters
	hourlyCap int
	dailyCap  int
	now       func() time.Time
}

func New(hourlyCap, dailyCap int) *Limiter {
	return &Limiter{
		entries:   make(map[string]*counters),
		hourlyCap: hourlyCap,
		dailyCap:  dailyCap,
		now:       time.Now,
	}
}

// Allow records one request for key and reports whether it fit under
// both caps. A rejected request is not counted.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.entries[key]
	if !ok {
		c = &counters{hourStart: now, dayStart: now}
		l.entries[key] = c
	}
	c.lastSeen = now

	if now.Sub(c.hourStart) >= time.Hour {
		c.hourStart = now
		c.hourCount = 0
	}
	if now.Sub(c.dayStart) >= 24*time.Hour {
		c.dayStart = now
		c.dayCount = 0
	}

	if c.hourCount >= l.hourlyCap || c.dayCount >= l.dailyCap {
		return false
	}

	c.hourCount++
	c.dayCount++
	return true
}

// Cleanup drops keys idle for more than a day. Run it in a goroutine.
func (l *Limiter) Cleanup() {
	for {
		time.Sleep(10 * time.Minute)
		l.mu.Lock()
		for key, c := range l.entries {
			if l.now().Sub(c.lastSeen) > 24*time.Hour {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}
