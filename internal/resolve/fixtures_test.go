package resolve

import (
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var treeOpts = cmp.Options{
	cmpopts.IgnoreUnexported(domain.Control{}),
	cmpopts.EquateEmpty(),
}

// Items shared by the sample catalog and expected trees.
var (
	ac1Statement  = dsl.Statement("Disseminate to {{ insert: param, ac-1_prm_1 }}.")
	ac21Statement = dsl.Statement("Review accounts every {{ insert: param, ac-2_prm_1 }}.")
	top1Statement = dsl.Statement("Uses {{ insert: param, top_prm }}.")
)

// sampleCatalog:
//
//	root_prm
//	top (top_prm)
//	  top.1 -> top_prm
//	ac (ac_prm)
//	  ac-1 (ac-1_prm_1) -> ac-1_prm_1
//	    ac-1.1
//	  ac-2 (ac-2_prm_1)
//	    ac-2.1 -> ac-2_prm_1
//	      ac-2.1.1
//	sc
//	  sc-1
func sampleCatalog() *domain.Catalog {
	return dsl.Catalog("Sample",
		dsl.Param("root_prm"),
		dsl.Control("top", "Top",
			dsl.Param("top_prm"),
			dsl.Control("top.1", "Top One", top1Statement),
		),
		dsl.Group("ac", "Access Control",
			dsl.Param("ac_prm"),
			dsl.Control("ac-1", "Policy",
				dsl.Param("ac-1_prm_1"),
				ac1Statement,
				dsl.Control("ac-1.1", "Policy Review"),
			),
			dsl.Control("ac-2", "Account Management",
				dsl.Param("ac-2_prm_1"),
				dsl.Control("ac-2.1", "Automated Management",
					ac21Statement,
					dsl.Control("ac-2.1.1", "Notifications"),
				),
			),
		),
		dsl.Group("sc", "System Protection",
			dsl.Control("sc-1", "Protection Policy"),
		),
	)
}

func controlIDs(ctrls []*domain.Control) []string {
	ids := make([]string, len(ctrls))
	for i, c := range ctrls {
		ids[i] = c.ID
	}
	return ids
}

func paramIDs(params []*domain.Parameter) []string {
	ids := make([]string, len(params))
	for i, p := range params {
		ids[i] = p.ID
	}
	return ids
}
