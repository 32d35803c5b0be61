// Package catalog caches space reference data. Spaces change rarely and
// are owned by the catalog service; the reservation path reads them through
// this cache so pricing and validation never wait on the database.
package catalog

import (
	"context"
	"sync"

	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

type SpaceStore interface {
	GetSpace(ctx context.Context, id string) (domain.Space, error)
}

type Cache struct {
	store  SpaceStore
	mu     sync.RWMutex
	spaces map[string]domain.Space
}

func NewCache(store SpaceStore) *Cache {
	return &Cache{
		store:  store,
		spaces: make(map[string]domain.Space),
	}
}

// Space returns the cached space, loading it from the store on first use.
// Lookup failures are not cached.
func (c *Cache) Space(ctx context.Context, id string) (domain.Space, error) {
	c.mu.RLock()
	space, ok := c.spaces[id]
	c.mu.RUnlock()
	if ok {
		return space, nil
	}

	space, err := c.store.GetSpace(ctx, id)
	if err != nil {
		return domain.Space{}, err
	}

	c.mu.Lock()
	c.spaces[id] = space
	c.mu.Unlock()
	return space, nil
}

// Invalidate drops a space from the cache; call after catalog updates.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.spaces, id)
	c.mu.Unlock()
}
