// Package cache stores templates under a serialized-byte budget with TTL
// expiry and a selectable eviction policy. The size-accounting path
// (check-budget, evict, insert) is one critical section so concurrent sets
// can never jointly exceed the budget.
package cache

import (
	"container/list"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-docgen/pkg/template"
	"go.uber.org/zap"
)

// Policy selects which items are removed first under budget pressure.
type Policy string

const (
	// LRU evicts ascending by last-access time.
	LRU Policy = "lru"
	// FIFO evicts ascending by insertion time.
	FIFO Policy = "fifo"
	// LFU evicts ascending by access count.
	LFU Policy = "lfu"
)

const (
	defaultBudget   = 4 << 20 // 4 MiB
	defaultTTL      = 30 * time.Minute
	defaultInterval = time.Minute

	// cleanup pressure thresholds as budget fractions
	pressureHigh   = 0.8
	pressureTarget = 0.5
)

// Item is a cached template plus its bookkeeping.
type Item struct {
	Template    template.Template
	Timestamp   time.Time // last access
	InsertedAt  time.Time
	AccessCount int
	ExpiresAt   time.Time
	Size        int
}

// Stats reports cache counters.
type Stats struct {
	TotalItems    int     `json:"totalItems"`
	TotalSize     int     `json:"totalSize"`
	HitCount      int64   `json:"hitCount"`
	MissCount     int64   `json:"missCount"`
	EvictionCount int64   `json:"evictionCount"`
	MemoryUsage   float64 `json:"memoryUsage"` // fraction of the byte budget
	HitRatio      float64 `json:"hitRatio"`
}

// Option customises a Cache.
type Option func(*Cache)

// WithPolicy selects the eviction policy. Default LRU.
func WithPolicy(policy Policy) Option {
	return func(c *Cache) { c.policy = policy }
}

// WithBudget sets the byte budget. Default 4 MiB.
func WithBudget(bytes int) Option {
	return func(c *Cache) {
		if bytes > 0 {
			c.budget = bytes
		}
	}
}

// WithDefaultTTL sets the TTL applied when Set receives none.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCleanupInterval sets the janitor period. Zero disables the janitor.
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *Cache) { c.interval = interval }
}

// WithLogger attaches a logger for eviction sweeps.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithClock overrides the time source, for TTL tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

type entry struct {
	id   string
	item Item
	elem *list.Element // position in order; nil until linked
}

// Cache is a byte-budgeted template cache. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // LRU: access order; FIFO: insertion order
	size    int

	policy   Policy
	budget   int
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger

	hits      int64
	misses    int64
	evictions int64

	stop chan struct{}
	done chan struct{}
}

// New constructs a Cache and, unless the cleanup interval is zero, starts
// the background janitor. Call Close to stop it.
func New(options ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*entry),
		order:    list.New(),
		policy:   LRU,
		budget:   defaultBudget,
		ttl:      defaultTTL,
		interval: defaultInterval,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.interval > 0 {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.janitor()
	}
	return c
}

// Close stops the background janitor. The cache stays usable.
func (c *Cache) Close() {
	if c.stop == nil {
		return
	}
	select {
	case <-c.stop:
	default:
		close(c.stop)
		<-c.done
	}
}

func (c *Cache) janitor() {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			removed := c.Cleanup()
			if removed > 0 {
				c.log.Debug("cache cleanup sweep", zap.Int("removed", removed))
			}
		case <-c.stop:
			return
		}
	}
}

// Get returns the cached template for id. Expired entries are deleted on
// read and count as both a miss and an eviction.
func (c *Cache) Get(id string) (template.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		c.misses++
		return template.Template{}, false
	}
	if !c.now().Before(e.item.ExpiresAt) {
		c.removeLocked(e)
		c.misses++
		c.evictions++
		return template.Template{}, false
	}

	c.hits++
	e.item.AccessCount++
	e.item.Timestamp = c.now()
	if c.policy == LRU {
		c.order.MoveToBack(e.elem)
	}
	return e.item.Template.Clone(), true
}

// Set stores a template under id with the given TTL (the default TTL when
// ttl <= 0), evicting by policy first if the insert would exceed the byte
// budget. A template larger than the whole budget is rejected.
func (c *Cache) Set(id string, t template.Template, ttl time.Duration) error {
	size := template.Size(t)
	if size > c.budget {
		return fmt.Errorf("cache: template %q (%d bytes) exceeds the %d byte budget", id, size, c.budget)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[id]; ok {
		c.removeLocked(existing)
	}

	if c.size+size > c.budget {
		c.evictLocked(c.size + size - c.budget)
	}

	now := c.now()
	e := &entry{
		id: id,
		item: Item{
			Template:   t.Clone(),
			Timestamp:  now,
			InsertedAt: now,
			ExpiresAt:  now.Add(ttl),
			Size:       size,
		},
	}
	e.elem = c.order.PushBack(e)
	c.entries[id] = e
	c.size += size
	return nil
}

// Delete removes id. Reports whether an entry existed.
func (c *Cache) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return false
	}
	c.removeLocked(e)
	return true
}

// Clear removes every entry without touching the hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.order.Init()
	c.size = 0
}

// Has reports whether id is cached and live, without promoting the entry or
// counting a miss.
func (c *Cache) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	return ok && c.now().Before(e.item.ExpiresAt)
}

// Keys returns the live ids in eviction-index order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry).id)
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		TotalItems:    len(c.entries),
		TotalSize:     c.size,
		HitCount:      c.hits,
		MissCount:     c.misses,
		EvictionCount: c.evictions,
		MemoryUsage:   float64(c.size) / float64(c.budget),
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRatio = float64(c.hits) / float64(total)
	}
	return stats
}

// Cleanup deletes every expired entry, then, while total size still exceeds
// 80% of the budget, proactively evicts down to 50% using the active
// policy. Returns the number of entries removed. Also invoked periodically
// by the janitor.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for _, e := range c.snapshotLocked() {
		if !now.Before(e.item.ExpiresAt) {
			c.removeLocked(e)
			c.evictions++
			removed++
		}
	}

	if float64(c.size) > pressureHigh*float64(c.budget) {
		target := int(pressureTarget * float64(c.budget))
		removed += c.evictLocked(c.size - target)
	}
	return removed
}

// evictLocked removes victims by policy until at least required bytes are
// freed. Whole items are evicted, so the freed total may overshoot; that
// approximate behaviour is the contract. Returns the victim count.
func (c *Cache) evictLocked(required int) int {
	freed, count := 0, 0
	for freed < required {
		victim := c.victimLocked()
		if victim == nil {
			break
		}
		freed += victim.item.Size
		c.removeLocked(victim)
		c.evictions++
		count++
	}
	return count
}

// victimLocked picks the next entry to evict under the active policy. LRU
// and FIFO read the front of the order list; LFU scans for the lowest
// access count.
func (c *Cache) victimLocked() *entry {
	if c.order.Len() == 0 {
		return nil
	}
	if c.policy != LFU {
		return c.order.Front().Value.(*entry)
	}

	var victim *entry
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry)
		if victim == nil || e.item.AccessCount < victim.item.AccessCount {
			victim = e
		}
	}
	return victim
}

func (c *Cache) removeLocked(e *entry) {
	delete(c.entries, e.id)
	c.order.Remove(e.elem)
	c.size -= e.item.Size
}

// snapshotLocked returns entries in a stable order so cleanup passes are
// deterministic.
func (c *Cache) snapshotLocked() []*entry {
	out := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
