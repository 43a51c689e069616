package dsl

import "github.com/aretw0/espalier/pkg/domain"

// ProfileBuilder provides a fluent API for configuring a profile.
type ProfileBuilder struct {
	profile domain.Profile
}

// SelectionOption refines an import.
type SelectionOption func(*domain.Import)

// Profile starts a profile with the given title.
func Profile(title string) *ProfileBuilder {
	return &ProfileBuilder{profile: domain.Profile{
		UUID:     "profile-" + slug(title),
		Metadata: domain.Metadata{Title: title},
	}}
}

// Import adds an import. Without include options every control is selected.
func (b *ProfileBuilder) Import(href string, opts ...SelectionOption) *ProfileBuilder {
	imp := domain.Import{Href: href}
	for _, opt := range opts {
		opt(&imp)
	}
	if len(imp.IncludeControls) == 0 {
		imp.IncludeAll = &domain.IncludeAll{}
	}
	b.profile.Imports = append(b.profile.Imports, imp)
	return b
}

// ImportProfile adds an import of another profile by ID.
func (b *ProfileBuilder) ImportProfile(id string, opts ...SelectionOption) *ProfileBuilder {
	return b.Import(domain.ProfileScheme+id, opts...)
}

// Include selects the listed controls only.
func Include(ids ...string) SelectionOption {
	return func(imp *domain.Import) {
		imp.IncludeControls = append(imp.IncludeControls, domain.Selection{WithIDs: ids})
	}
}

// IncludeWithChildren selects the listed controls and all their descendants.
func IncludeWithChildren(ids ...string) SelectionOption {
	return func(imp *domain.Import) {
		imp.IncludeControls = append(imp.IncludeControls, domain.Selection{WithIDs: ids, WithChildControls: "yes"})
	}
}

// Exclude removes the listed controls.
func Exclude(ids ...string) SelectionOption {
	return func(imp *domain.Import) {
		imp.ExcludeControls = append(imp.ExcludeControls, domain.Selection{WithIDs: ids})
	}
}

// ExcludeWithChildren removes the listed controls and all their descendants.
func ExcludeWithChildren(ids ...string) SelectionOption {
	return func(imp *domain.Import) {
		imp.ExcludeControls = append(imp.ExcludeControls, domain.Selection{WithIDs: ids, WithChildControls: "yes"})
	}
}

func (b *ProfileBuilder) merge() *domain.Merge {
	if b.profile.Merge == nil {
		b.profile.Merge = &domain.Merge{}
	}
	return b.profile.Merge
}

// AsIs keeps the group structure of the imported catalogs.
func (b *ProfileBuilder) AsIs() *ProfileBuilder {
	b.merge().AsIs = true
	return b
}

// Flat discards group structure.
func (b *ProfileBuilder) Flat() *ProfileBuilder {
	b.merge().Flat = &domain.Flat{}
	return b
}

// Combine sets the combine method for duplicate IDs.
func (b *ProfileBuilder) Combine(method string) *ProfileBuilder {
	b.merge().Combine = &domain.Combine{Method: method}
	return b
}

func (b *ProfileBuilder) modify() *domain.Modify {
	if b.profile.Modify == nil {
		b.profile.Modify = &domain.Modify{}
	}
	return b.profile.Modify
}

// SetParam overrides the values of a parameter.
func (b *ProfileBuilder) SetParam(id string, values ...string) *ProfileBuilder {
	b.modify().SetParameters = append(b.modify().SetParameters, domain.SetParameter{ParamID: id, Values: values})
	return b
}

// Alter adds a control alteration.
func (b *ProfileBuilder) Alter(alt domain.Alter) *ProfileBuilder {
	b.modify().Alters = append(b.modify().Alters, alt)
	return b
}

// Build returns the profile.
func (b *ProfileBuilder) Build() *domain.Profile {
	p := b.profile
	return &p
}
