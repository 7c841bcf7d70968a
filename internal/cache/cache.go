// Package cache provides a thread-safe TTL cache for repository statuses.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
)

// DefaultTTL is the default time-to-live for cached statuses.
const DefaultTTL = 30 * time.Second

type entry struct {
	status   *models.RepoStatus
	storedAt time.Time
}

// StatusCache caches RepoStatus values per repo name. Stale entries are
// kept around so a failed refresh can still serve the last known state.
type StatusCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// New creates a StatusCache with the given TTL.
func New(ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StatusCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached status for name if it is still fresh.
func (c *StatusCache) Get(name string) (*models.RepoStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.status, true
}

// GetStale returns the cached status for name regardless of age.
func (c *StatusCache) GetStale(name string) (*models.RepoStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	return e.status, true
}

// Put stores a status under its repo name.
func (c *StatusCache) Put(status *models.RepoStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[status.Name] = entry{status: status, storedAt: c.now()}
}

// Invalidate removes the entry for name.
func (c *StatusCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// Retain drops every entry whose name is not in keep. Called after a
// rescan so removed directories disappear from the dashboard.
func (c *StatusCache) Retain(keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name := range c.entries {
		if !keep[name] {
			delete(c.entries, name)
		}
	}
}

// Snapshot returns all cached statuses sorted by repo name, fresh or
// not. Row ordering in the UI depends on this being stable.
func (c *StatusCache) Snapshot() []*models.RepoStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.RepoStatus, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetClock overrides the cache clock. Tests only.
func (c *StatusCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
