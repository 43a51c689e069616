package dsl

import (
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
)

// Builder collects documents into a memory loader.
type Builder struct {
	profiles map[string]*domain.Profile
	catalogs map[string]*domain.Catalog
}

// New creates a new document set builder.
func New() *Builder {
	return &Builder{
		profiles: make(map[string]*domain.Profile),
		catalogs: make(map[string]*domain.Catalog),
	}
}

// AddCatalog registers a catalog under the href imports will use.
func (b *Builder) AddCatalog(href string, cat *domain.Catalog) *Builder {
	b.catalogs[href] = cat
	return b
}

// AddProfile registers a profile under id.
func (b *Builder) AddProfile(id string, p *domain.Profile) *Builder {
	b.profiles[id] = p
	return b
}

// Build returns a loader serving every registered document.
func (b *Builder) Build() *memory.Loader {
	return memory.NewLoader(b.profiles, b.catalogs)
}
