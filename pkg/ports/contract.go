package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractCatalog(id string) *domain.Catalog {
	cat := &domain.Catalog{
		UUID:     id,
		Metadata: domain.Metadata{Title: "Contract " + id},
		Params:   []*domain.Parameter{{ID: "root_prm", Values: []string{"v"}}},
		Groups: []*domain.Group{{
			ID:    "ac",
			Title: "Access Control",
			Controls: []*domain.Control{{
				ID:       "ac-1",
				Title:    "Policy",
				Controls: []*domain.Control{{ID: "ac-1.1", Title: "Enhancement"}},
			}},
		}},
	}
	cat.LinkParents()
	return cat
}

// RunCatalogCacheContract runs a suite of tests to verify that a CatalogCache
// implementation adheres to the defined interface contract.
func RunCatalogCacheContract(t *testing.T, cache CatalogCache) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405")

	t.Run("Put and Get", func(t *testing.T) {
		cat := contractCatalog("cat-1")
		require.NoError(t, cache.Put(ctx, key, cat), "Put should not return error")

		loaded, err := cache.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, "cat-1", loaded.UUID)
		assert.Equal(t, "Contract cat-1", loaded.Metadata.Title)

		enh := loaded.FindControl("ac-1.1")
		require.NotNil(t, enh)
		assert.Same(t, loaded.FindControl("ac-1"), enh.Parent(), "parent links must be restored")
	})

	t.Run("Get returns an independent copy", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, contractCatalog("cat-1")))

		first, err := cache.Get(ctx, key)
		require.NoError(t, err)
		first.Groups = nil

		second, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Len(t, second.Groups, 1)
	})

	t.Run("Put overwrites", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, contractCatalog("cat-2")))
		loaded, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "cat-2", loaded.UUID)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := cache.Get(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrCatalogNotFound)
	})

	t.Run("Keys", func(t *testing.T) {
		k1, k2 := key+"-1", key+"-2"
		require.NoError(t, cache.Put(ctx, k1, contractCatalog("a")))
		require.NoError(t, cache.Put(ctx, k2, contractCatalog("b")))
		defer func() {
			_ = cache.Delete(ctx, k1)
			_ = cache.Delete(ctx, k2)
		}()

		keys, err := cache.Keys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, contractCatalog("cat-1")))
		require.NoError(t, cache.Delete(ctx, key), "Delete should not return error")

		_, err := cache.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCatalogNotFound, "Get after Delete should return ErrCatalogNotFound")

		assert.NoError(t, cache.Delete(ctx, key), "deleting a missing key is not an error")

		keys, err := cache.Keys(ctx)
		require.NoError(t, err)
		assert.NotContains(t, keys, key)
	})
}

// RunLockerContract verifies mutual exclusion and release of a DistributedLocker.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, unlock)
		assert.NoError(t, unlock(ctx))
	})

	t.Run("Contention", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(short, key, 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "second holder must wait")

		require.NoError(t, unlock(ctx))

		unlock2, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err, "lock must be free after release")
		assert.NoError(t, unlock2(ctx))
	})
}
