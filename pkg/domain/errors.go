package domain

import "errors"

// ErrUnsupportedScope is returned when entities are applied to a destination
// that is not a Catalog, Group or Control.
var ErrUnsupportedScope = errors.New("unsupported destination scope")

// ErrCatalogNotFound is returned when a catalog href or cache key cannot be found.
var ErrCatalogNotFound = errors.New("catalog not found")

// ErrProfileNotFound is returned when a profile ID cannot be found in the repository.
var ErrProfileNotFound = errors.New("profile not found")

// ErrImportCycle is returned when a profile imports itself, directly or transitively.
var ErrImportCycle = errors.New("import cycle detected")

// ErrUnknownControl is returned when a selection or alteration names a control that does not exist.
var ErrUnknownControl = errors.New("unknown control")

// ErrUnknownParameter is returned when a set-parameter names a parameter that does not exist.
var ErrUnknownParameter = errors.New("unknown parameter")

// ErrUnknownPart is returned when an alteration positions content relative to a part that does not exist.
var ErrUnknownPart = errors.New("unknown part")
