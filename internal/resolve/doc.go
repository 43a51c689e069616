/*
Package resolve turns a profile into a resolved catalog.

Resolution runs in four phases per profile:

 1. Import: each import's source (a catalog, or another profile resolved
    recursively) is loaded and cloned. Imports resolve in parallel.
 2. Selection: the import's include/exclude directives pick controls, and
    the source tree is pruned bottom-up. Selected controls whose parent was
    dropped are promoted to the nearest kept ancestor, together with the
    parameters they still reference (see package result).
 3. Merge: the pruned catalogs are combined into one, either flattened or
    keeping their group structure, reconciling duplicate IDs.
 4. Modify: parameter settings and control alterations are applied.
*/
package resolve
