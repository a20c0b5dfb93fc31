// Package history keeps the bounded, expiring conversation window used to
// build prompts. It is not a durable transcript.
package history

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/xaenox/attendant-bot/internal/models"
)

const (
	DefaultLimit = 10
	DefaultTTL   = time.Hour
)

type Cache struct {
	// mu serialises read-modify-write in Append; ttlcache only guards
	// single operations.
	mu      sync.Mutex
	items   *ttlcache.Cache[string, []models.HistoryEntry]
	limit   int
	running atomic.Bool
}

func New(limit int, ttl time.Duration) *Cache {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	items := ttlcache.New[string, []models.HistoryEntry](
		ttlcache.WithTTL[string, []models.HistoryEntry](ttl),
		ttlcache.WithDisableTouchOnHit[string, []models.HistoryEntry](),
	)
	return &Cache{items: items, limit: limit}
}

// Append adds an entry and keeps only the most recent limit entries.
// Each write restarts the idle TTL of the phone.
func (c *Cache) Append(phone string, role models.Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var entries []models.HistoryEntry
	if item := c.items.Get(phone); item != nil {
		entries = item.Value()
	}
	next := make([]models.HistoryEntry, 0, len(entries)+1)
	next = append(next, entries...)
	next = append(next, models.HistoryEntry{Role: role, Content: content})
	if len(next) > c.limit {
		next = next[len(next)-c.limit:]
	}
	c.items.Set(phone, next, ttlcache.DefaultTTL)
}

// Get returns a copy of the current window, empty when none or expired.
func (c *Cache) Get(phone string) []models.HistoryEntry {
	item := c.items.Get(phone)
	if item == nil {
		return []models.HistoryEntry{}
	}
	entries := item.Value()
	out := make([]models.HistoryEntry, len(entries))
	copy(out, entries)
	return out
}

// IsFirstMessage reports whether there is no prior exchange with phone.
func (c *Cache) IsFirstMessage(phone string) bool {
	return len(c.Get(phone)) == 0
}

func (c *Cache) Clear(phone string) {
	c.items.Delete(phone)
}

func (c *Cache) Len() int {
	return c.items.Len()
}

// Start runs the expired item cleanup loop until Stop is called.
func (c *Cache) Start() {
	if c.running.CompareAndSwap(false, true) {
		go c.items.Start()
	}
}

// Stop is a no-op when the cleanup loop is not running.
func (c *Cache) Stop() {
	if c.running.CompareAndSwap(true, false) {
		c.items.Stop()
	}
}
