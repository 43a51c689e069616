package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Issue kinds.
const (
	KindDuplicateControl = "duplicate-control"
	KindDuplicateParam   = "duplicate-param"
	KindParentLink       = "parent-link"
	KindMissingParam     = "missing-param"
	KindMissingProfile   = "missing-profile"
	KindImportCycle      = "import-cycle"
)

// ValidateCatalog crawls a resolved catalog and reports, in document order,
// duplicate control and param IDs, parent links that disagree with where a
// control sits, and required params that no longer exist.
func ValidateCatalog(cat *domain.Catalog, required []string) error {
	v := &catalogCrawler{
		controls: make(map[string]bool),
		params:   make(map[string]bool),
	}

	v.checkParams(cat.Params)
	v.checkControls(cat.Controls, nil)
	for _, g := range cat.Groups {
		v.group(g)
	}

	for _, id := range required {
		if !v.params[id] {
			v.fail(KindMissingParam, id, "referenced by a kept control but not present")
		}
	}

	if len(v.errs) > 0 {
		return &AggregateError{Errors: v.errs}
	}
	return nil
}

type catalogCrawler struct {
	controls map[string]bool
	params   map[string]bool
	errs     []error
}

func (v *catalogCrawler) fail(kind, id, reason string) {
	v.errs = append(v.errs, &Issue{Kind: kind, ID: id, Reason: reason})
}

func (v *catalogCrawler) group(g *domain.Group) {
	v.checkParams(g.Params)
	v.checkControls(g.Controls, nil)
	for _, sub := range g.Groups {
		v.group(sub)
	}
}

func (v *catalogCrawler) checkParams(params []*domain.Parameter) {
	for _, p := range params {
		if v.params[p.ID] {
			v.fail(KindDuplicateParam, p.ID, "declared more than once")
			continue
		}
		v.params[p.ID] = true
	}
}

func (v *catalogCrawler) checkControls(ctrls []*domain.Control, parent *domain.Control) {
	for _, c := range ctrls {
		if v.controls[c.ID] {
			v.fail(KindDuplicateControl, c.ID, "declared more than once")
		}
		v.controls[c.ID] = true

		if c.Parent() != parent {
			v.fail(KindParentLink, c.ID, fmt.Sprintf("expected parent %s, got %s", controlName(parent), controlName(c.Parent())))
		}
		v.checkParams(c.Params)
		v.checkControls(c.Controls, c)
	}
}

func controlName(c *domain.Control) string {
	if c == nil {
		return "<none>"
	}
	return c.ID
}

// ValidateImports crawls the profile import graph starting from profileID and
// reports profiles that cannot be loaded and import cycles. Catalog hrefs are
// not fetched.
func ValidateImports(ctx context.Context, loader ports.ProfileLoader, profileID string) error {
	var errs []error
	state := make(map[string]int) // 0 unseen, 1 on stack, 2 done

	var visit func(id string, stack []string)
	visit = func(id string, stack []string) {
		switch state[id] {
		case 1:
			errs = append(errs, &Issue{
				Kind:   KindImportCycle,
				ID:     id,
				Reason: strings.Join(append(stack, id), " -> "),
			})
			return
		case 2:
			return
		}
		state[id] = 1
		defer func() { state[id] = 2 }()

		p, err := loader.LoadProfile(ctx, id)
		if err != nil {
			errs = append(errs, &Issue{Kind: KindMissingProfile, ID: id, Reason: err.Error(), Err: err})
			return
		}
		stack = append(stack, id)
		for _, imp := range p.Imports {
			if next, ok := strings.CutPrefix(imp.Href, domain.ProfileScheme); ok {
				visit(next, stack)
			}
		}
	}
	visit(profileID, nil)

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
