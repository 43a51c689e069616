/*
Package result implements the accumulator at the heart of profile resolution.

As the resolver walks a catalog tree, every scope (control, group, catalog root)
produces a Result holding the entities that must be promoted out of it: controls
whose parent was not selected, and parameters those controls still reference.
Sibling results are combined with Append as the walk ascends, and at the nearest
surviving ancestor the Result is applied with ApplyTo, which attaches the
entities and rewrites the parent links.

# Semantics

  - Promotion is idempotent and ordered: the first promotion of an entity fixes its position.
  - Identity, not ID, decides membership: distinct entities sharing an ID are both kept.
  - Required parameter IDs only ever grow.
  - ApplyTo appends; it does not protect the destination against a second application.

A Result holds no external resources and may be abandoned at any point.
*/
package result
