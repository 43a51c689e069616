/*
Package espalier resolves OSCAL profiles into catalogs.

A profile selects controls from one or more catalogs (or other profiles),
decides how they are structured, and tailors them. Resolution prunes every
imported catalog down to the selected controls, promotes the parameters and
controls that would otherwise be orphaned into the nearest surviving scope,
merges the imports and applies the profile's modifications.

# Usage

Profiles live in a document repository read through Loam; catalog hrefs are
resolved relative to the repository or to a base URL.

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/espalier"
		"github.com/aretw0/espalier/pkg/codec"
	)

	func main() {
		r, err := espalier.New("./profiles")
		if err != nil {
			log.Fatal(err)
		}

		out, err := r.Resolve(context.Background(), "moderate")
		if err != nil {
			log.Fatal(err)
		}

		data, err := codec.EncodeCatalog(out.Catalog, codec.FormatJSON)
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(data)
	}

Custom loaders, caches and metrics are injected with options such as
WithProfileLoader, WithCatalogLoader, WithCache and WithMetrics.
*/
package espalier
