package service

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"wellnest/pkg/model"
)

// SlotCache memoizes enumerated slots per specialist and day. Entries
// carry a per-specialist generation number; bumping the generation on a
// schedule change or booking makes every older entry unreachable, and
// the LRU eviction reclaims them over time. A global generation covers
// changes that affect every specialist at once, such as an edit to a
// service's duration.
type SlotCache struct {
	cache *lru.Cache[string, []model.Slot]

	mu          sync.Mutex
	global      uint64
	generations map[string]uint64
}

func NewSlotCache(size int) (*SlotCache, error) {
	cache, err := lru.New[string, []model.Slot](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot cache: %w", err)
	}
	return &SlotCache{
		cache:       cache,
		generations: make(map[string]uint64),
	}, nil
}

func (c *SlotCache) key(specialistID, date, serviceID string, stepMin int) string {
	c.mu.Lock()
	global := c.global
	gen := c.generations[specialistID]
	c.mu.Unlock()
	return fmt.Sprintf("%d|%s|%d|%s|%s|%d", global, specialistID, gen, date, serviceID, stepMin)
}

func (c *SlotCache) Get(specialistID, date, serviceID string, stepMin int) ([]model.Slot, bool) {
	return c.cache.Get(c.key(specialistID, date, serviceID, stepMin))
}

func (c *SlotCache) Set(specialistID, date, serviceID string, stepMin int, slots []model.Slot) {
	c.cache.Add(c.key(specialistID, date, serviceID, stepMin), slots)
}

// InvalidateSpecialist drops every cached day for the specialist.
func (c *SlotCache) InvalidateSpecialist(specialistID string) {
	c.mu.Lock()
	c.generations[specialistID]++
	c.mu.Unlock()
}

// InvalidateAll drops every cached entry for every specialist.
func (c *SlotCache) InvalidateAll() {
	c.mu.Lock()
	c.global++
	c.mu.Unlock()
}

func (c *SlotCache) Len() int {
	return c.cache.Len()
}
