package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Cache implements ports.CatalogCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]*domain.Catalog
	mu   sync.RWMutex
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*domain.Catalog),
	}
}

// Put stores a deep copy of the catalog, so later mutation by the caller is not visible.
func (c *Cache) Put(ctx context.Context, key string, cat *domain.Catalog) error {
	cp := cat.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cp
	return nil
}

// Get returns a copy of the cached catalog.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Catalog, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cat, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCatalogNotFound
	}
	return cat.Clone(), nil
}

// Delete removes the entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Keys returns the cached keys in sorted order.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Locker implements ports.DistributedLocker for a single process.
// The TTL is ignored: locks are held until released.
type Locker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocker creates a new in-process locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]chan struct{})}
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			released := make(chan struct{})
			l.locks[key] = released
			l.mu.Unlock()

			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, key)
					l.mu.Unlock()
					close(released)
				})
				return nil
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-held:
		}
	}
}
