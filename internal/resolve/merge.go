package resolve

import (
	"fmt"
	"log/slog"

	"bitbucket.org/creachadair/stringset"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/result"
)

// reconciler applies a combine method to controls and params that share an ID
// across imports. The first occurrence, in import order, is the survivor.
type reconciler struct {
	method   string
	logger   *slog.Logger
	controls map[string]*domain.Control
	params   stringset.Set
}

// reconcile edits the pruned import catalogs in place. With "keep" nothing changes.
func reconcile(cats []*domain.Catalog, method string, logger *slog.Logger) error {
	switch method {
	case domain.CombineKeep:
		return nil
	case domain.CombineUseFirst, domain.CombineMerge:
	default:
		return fmt.Errorf("unsupported combine method %q", method)
	}

	r := &reconciler{
		method:   method,
		logger:   logger,
		controls: make(map[string]*domain.Control),
		params:   stringset.New(),
	}
	for _, cat := range cats {
		if err := r.catalog(cat); err != nil {
			return err
		}
	}
	return nil
}

func (r *reconciler) catalog(cat *domain.Catalog) error {
	var err error
	cat.Params = r.filterParams(cat.Params)
	if cat.Controls, err = r.filterControls(cat.Controls); err != nil {
		return err
	}
	for _, g := range cat.Groups {
		if err := r.group(g); err != nil {
			return err
		}
	}
	return nil
}

func (r *reconciler) group(g *domain.Group) error {
	var err error
	g.Params = r.filterParams(g.Params)
	if g.Controls, err = r.filterControls(g.Controls); err != nil {
		return err
	}
	for _, sub := range g.Groups {
		if err := r.group(sub); err != nil {
			return err
		}
	}
	return nil
}

func (r *reconciler) filterParams(in []*domain.Parameter) []*domain.Parameter {
	out := in[:0]
	for _, p := range in {
		if r.params.Contains(p.ID) {
			r.logger.Debug("dropping duplicate parameter", "param_id", p.ID, "combine", r.method)
			continue
		}
		r.params.Add(p.ID)
		out = append(out, p)
	}
	return out
}

func (r *reconciler) filterControls(in []*domain.Control) ([]*domain.Control, error) {
	out := in[:0]
	for _, c := range in {
		var err error
		if first, dup := r.controls[c.ID]; dup {
			if r.method == domain.CombineMerge {
				c.Params = r.filterParams(c.Params)
				if c.Controls, err = r.filterControls(c.Controls); err != nil {
					return nil, err
				}
				if err := mergeControl(first, c, r.logger); err != nil {
					return nil, err
				}
			}
			r.logger.Debug("dropping duplicate control", "control_id", c.ID, "combine", r.method)
			continue
		}

		r.controls[c.ID] = c
		c.Params = r.filterParams(c.Params)
		if c.Controls, err = r.filterControls(c.Controls); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// mergeControl folds the remaining content of dup into first.
// Params and child controls move through a Result, so children are re-parented under first.
func mergeControl(first, dup *domain.Control, logger *slog.Logger) error {
	res := result.New(result.WithLogger(logger))
	for _, p := range dup.Params {
		res.PromoteParameter(p)
	}
	for _, child := range dup.Controls {
		res.PromoteControl(child)
	}

	for _, prop := range dup.Props {
		if !hasProp(first.Props, prop) {
			first.Props = append(first.Props, prop)
		}
	}
	for _, part := range dup.Parts {
		if part.ID == "" || findPart(first.Parts, part.ID) == nil {
			first.Parts = append(first.Parts, part)
		}
	}
	return res.ApplyTo(first)
}

func hasProp(props []domain.Property, p domain.Property) bool {
	for _, existing := range props {
		if existing.Name == p.Name && existing.Value == p.Value && existing.NS == p.NS {
			return true
		}
	}
	return false
}

// structure combines the pruned import catalogs into out.
//
// Flat output (the default) has no groups: every top-level control and every
// group's params and controls land at the root. As-is output keeps the groups;
// with combine "merge", groups sharing an ID are merged into one.
func structure(out *domain.Catalog, cats []*domain.Catalog, merge *domain.Merge, logger *slog.Logger) error {
	acc := result.New(result.WithLogger(logger))

	if !merge.Structured() {
		for _, cat := range cats {
			promoteAll(acc, cat.Params, cat.Controls)
			for _, g := range cat.Groups {
				flattenGroup(acc, g)
			}
		}
		return acc.ApplyTo(out)
	}

	combineGroups := merge.CombineMethod() == domain.CombineMerge
	for _, cat := range cats {
		promoteAll(acc, cat.Params, cat.Controls)
		for _, g := range cat.Groups {
			var err error
			if out.Groups, err = addGroup(out.Groups, g, combineGroups, logger); err != nil {
				return err
			}
		}
	}
	return acc.ApplyTo(out)
}

func promoteAll(acc *result.Result, params []*domain.Parameter, controls []*domain.Control) {
	for _, p := range params {
		acc.PromoteParameter(p)
	}
	for _, c := range controls {
		acc.PromoteControl(c)
	}
}

func flattenGroup(acc *result.Result, g *domain.Group) {
	promoteAll(acc, g.Params, g.Controls)
	for _, sub := range g.Groups {
		flattenGroup(acc, sub)
	}
}

// addGroup appends g to siblings, or merges it into an existing sibling with the same ID.
func addGroup(siblings []*domain.Group, g *domain.Group, combine bool, logger *slog.Logger) ([]*domain.Group, error) {
	if combine && g.ID != "" {
		for _, existing := range siblings {
			if existing.ID == g.ID {
				return siblings, mergeGroup(existing, g, logger)
			}
		}
	}
	return append(siblings, g), nil
}

func mergeGroup(dst, src *domain.Group, logger *slog.Logger) error {
	logger.Debug("merging group", "group_id", src.ID)

	res := result.New(result.WithLogger(logger))
	promoteAll(res, src.Params, src.Controls)
	if err := res.ApplyTo(dst); err != nil {
		return err
	}
	for _, sub := range src.Groups {
		var err error
		if dst.Groups, err = addGroup(dst.Groups, sub, true, logger); err != nil {
			return err
		}
	}
	return nil
}
