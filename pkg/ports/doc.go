/*
Package ports defines the driven ports (interfaces) of the espalier resolver.

These interfaces decouple resolution from where profiles, catalogs and
resolved output live, so the same pipeline runs against a Loam repository,
a remote object store, or plain memory in tests.

# Key Interfaces

  - ProfileLoader: lists and loads profiles (e.g., from Loam or Memory).
  - CatalogLoader: fetches the source catalogs named by import hrefs.
  - CatalogCache: stores resolved catalogs keyed by a profile fingerprint.
  - DistributedLocker: coordinates cache population across replicas.

Adapters prove conformance with the shared contract suites in this package
(RunCatalogCacheContract, RunLockerContract) and in ports/tests.
*/
package ports
