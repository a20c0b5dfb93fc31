// Package debounce collapses duplicate or rapid inbound deliveries per phone.
package debounce

import (
	"sync"
	"time"

	"github.com/xaenox/attendant-bot/internal/clock"
)

const (
	DefaultWindow    = 500 * time.Millisecond
	DefaultRetention = 60 * time.Second
)

type Guard struct {
	mu        sync.Mutex
	last      map[string]time.Time
	window    time.Duration
	retention time.Duration
	clock     clock.Clock
}

func New(window, retention time.Duration, clk clock.Clock) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Guard{
		last:      make(map[string]time.Time),
		window:    window,
		retention: retention,
		clock:     clk,
	}
}

// Allow reports whether a message from phone should be processed. Only
// accepted messages move the window, so a steady stream is never starved.
func (g *Guard) Allow(phone string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if last, ok := g.last[phone]; ok && now.Sub(last) < g.window {
		return false
	}
	g.last[phone] = now
	return true
}

// Sweep drops entries older than the retention period.
func (g *Guard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	removed := 0
	for phone, last := range g.last {
		if now.Sub(last) > g.retention {
			delete(g.last, phone)
			removed++
		}
	}
	return removed
}

func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.last)
}
