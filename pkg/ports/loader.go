package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// CatalogLoader fetches source catalogs named by profile import hrefs.
// Implementations return domain.ErrCatalogNotFound when the href does not resolve.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, href string) (*domain.Catalog, error)
}

// ProfileLoader defines how the resolver retrieves profile definitions.
// This allows the storage layer (Loam, FS, Memory) to be decoupled.
type ProfileLoader interface {
	// LoadProfile returns the profile with the given ID, or domain.ErrProfileNotFound.
	LoadProfile(ctx context.Context, id string) (*domain.Profile, error)

	// ListProfiles returns the IDs of all profiles available in the repository.
	ListProfiles(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the ID of every changed profile document.
	Watch(ctx context.Context) (<-chan string, error)
}
