/*
Package domain contains the document model resolved by espalier.

It defines the OSCAL entities a profile selects from and the resolved catalog is
made of. The package is kept pure and free of I/O, following the same hexagonal
split as the rest of the module: loaders, caches and codecs live in adapters.

# Key Entities

  - Catalog: the root document holding top-level params, controls and groups.
  - Group: a named collection of controls (and nested groups).
  - Control: a requirement; may nest sub-controls, linked back through a weak parent pointer.
  - Parameter: a named variable referenced from control prose.
  - Profile: imports, merge directives and modifications that select from catalogs.

Catalog, Group and Control all implement Scope, the destination contract used
when promoted entities are attached during resolution.
*/
package domain
