package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// CatalogCache stores resolved catalogs by fingerprint.
// Resolution is deterministic for a given profile and source set, so a hit can
// be served without walking the imports again.
type CatalogCache interface {
	// Get returns the cached catalog, or domain.ErrCatalogNotFound on a miss.
	// Callers own the returned catalog and may mutate it.
	Get(ctx context.Context, key string) (*domain.Catalog, error)

	// Put stores a copy of the catalog under key, replacing any previous entry.
	Put(ctx context.Context, key string, cat *domain.Catalog) error

	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the live entries.
	Keys(ctx context.Context) ([]string, error)
}
