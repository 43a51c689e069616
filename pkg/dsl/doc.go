/*
Package dsl provides a Go DSL for programmatically constructing OSCAL catalogs and profiles.

It replaces hand-written JSON fixtures with nested, type-checked constructors.
This is particularly useful for unit testing resolution rules and for
generating catalogs on the fly.

Example usage:

	package main

	import (
		"github.com/aretw0/espalier/pkg/dsl"
	)

	func main() {
		catalog := dsl.Catalog("Sample Catalog",
			dsl.Group("ac", "Access Control",
				dsl.Control("ac-1", "Policy and Procedures",
					dsl.Param("ac-1_prm_1"),
					dsl.Statement("Disseminate to {{ insert: param, ac-1_prm_1 }}."),
					dsl.Control("ac-1.1", "Review"),
				),
			),
		)

		profile := dsl.Profile("Low Baseline").
			Import("catalog.json", dsl.IncludeWithChildren("ac-1")).
			AsIs().
			Build()

		// The resulting documents can be served through a memory loader.
		loader := dsl.New().
			AddCatalog("catalog.json", catalog).
			AddProfile("low", profile).
			Build()
		// ... pass loader to espalier.New("", espalier.WithProfileLoader(loader), ...)
	}
*/
package dsl
