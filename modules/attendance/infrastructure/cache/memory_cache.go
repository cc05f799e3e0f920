package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/koinonia-app/koinonia/pkg/composables"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a process-local result cache with per-tenant invalidation.
type MemoryCache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	now         func() time.Time
	entries     map[string]memoryEntry
	tenantIndex map[uuid.UUID]map[string]struct{}
	lastSweep   time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:         ttl,
		now:         time.Now,
		entries:     make(map[string]memoryEntry),
		tenantIndex: make(map[uuid.UUID]map[string]struct{}),
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, false, err
	}
	full := entryKey(tenantID, key)
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[full]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(now) {
		c.mu.Lock()
		if cur, ok := c.entries[full]; ok && cur.expired(now) {
			c.removeLocked(tenantID, full)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	if key == "" {
		return nil
	}
	now := c.now()
	e := memoryEntry{value: value}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}
	full := entryKey(tenantID, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(now)
	c.entries[full] = e
	if _, ok := c.tenantIndex[tenantID]; !ok {
		c.tenantIndex[tenantID] = make(map[string]struct{})
	}
	c.tenantIndex[tenantID][full] = struct{}{}
	return nil
}

// sweepLocked drops expired entries, at most once per ttl.
func (c *MemoryCache) sweepLocked(now time.Time) {
	if c.ttl <= 0 || now.Sub(c.lastSweep) < c.ttl {
		return
	}
	c.lastSweep = now
	for tenantID, keys := range c.tenantIndex {
		for full := range keys {
			if e, ok := c.entries[full]; !ok || e.expired(now) {
				c.removeLocked(tenantID, full)
			}
		}
	}
}

func (c *MemoryCache) removeLocked(tenantID uuid.UUID, full string) {
	delete(c.entries, full)
	keys := c.tenantIndex[tenantID]
	delete(keys, full)
	if len(keys) == 0 {
		delete(c.tenantIndex, tenantID)
	}
}

func (c *MemoryCache) InvalidateTenant(ctx context.Context) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.tenantIndex[tenantID] {
		delete(c.entries, key)
	}
	delete(c.tenantIndex, tenantID)
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func entryKey(tenantID uuid.UUID, key string) string {
	return tenantID.String() + ":" + key
}
