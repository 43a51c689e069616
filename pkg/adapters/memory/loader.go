package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/espalier/pkg/codec"
	"github.com/aretw0/espalier/pkg/domain"
)

// Loader implements ports.ProfileLoader and ports.CatalogLoader using in-memory maps.
// Safe for concurrent use.
type Loader struct {
	mu       sync.RWMutex
	profiles map[string]*domain.Profile
	catalogs map[string]*domain.Catalog
}

// NewLoader creates a new Loader from domain objects.
func NewLoader(profiles map[string]*domain.Profile, catalogs map[string]*domain.Catalog) *Loader {
	l := &Loader{
		profiles: make(map[string]*domain.Profile, len(profiles)),
		catalogs: make(map[string]*domain.Catalog, len(catalogs)),
	}
	for id, p := range profiles {
		l.profiles[id] = p
	}
	for href, c := range catalogs {
		l.catalogs[href] = c
	}
	return l
}

// NewFromDocuments creates a Loader from raw OSCAL JSON documents keyed by
// profile ID and catalog href. This handles decoding automatically, improving DX for tests.
func NewFromDocuments(profiles, catalogs map[string]string) (*Loader, error) {
	l := NewLoader(nil, nil)
	for id, raw := range profiles {
		p, err := codec.DecodeProfile([]byte(raw), codec.FormatJSON)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", id, err)
		}
		l.profiles[id] = p
	}
	for href, raw := range catalogs {
		c, err := codec.DecodeCatalog([]byte(raw), codec.FormatJSON)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", href, err)
		}
		l.catalogs[href] = c
	}
	return l, nil
}

// AddProfile registers or replaces a profile.
func (l *Loader) AddProfile(id string, p *domain.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profiles[id] = p
}

// AddCatalog registers or replaces a catalog under href.
func (l *Loader) AddCatalog(href string, c *domain.Catalog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.catalogs[href] = c
}

// LoadProfile returns the stored profile.
func (l *Loader) LoadProfile(ctx context.Context, id string) (*domain.Profile, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, id)
	}
	return p, nil
}

// ListProfiles returns all profile IDs in sorted order.
func (l *Loader) ListProfiles(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.profiles))
	for id := range l.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}

// LoadCatalog returns a deep copy of the stored catalog, so callers may mutate it.
func (l *Loader) LoadCatalog(ctx context.Context, href string) (*domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.catalogs[href]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, href)
	}
	return c.Clone(), nil
}
