package resolve

import (
	"log/slog"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/result"
)

// Stats summarizes what a resolution kept and moved.
type Stats struct {
	Imports          int `json:"imports"`
	KeptControls     int `json:"kept_controls"`
	PromotedControls int `json:"promoted_controls"`
	PromotedParams   int `json:"promoted_params"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Imports += other.Imports
	s.KeptControls += other.KeptControls
	s.PromotedControls += other.PromotedControls
	s.PromotedParams += other.PromotedParams
}

// walker prunes a catalog in place, keeping only selected controls.
type walker struct {
	selector *Selector
	logger   *slog.Logger
	stats    Stats
	// dropped holds params of dropped scopes that no descendant required.
	dropped []*domain.Parameter
}

func newWalker(sel *Selector, logger *slog.Logger) *walker {
	return &walker{selector: sel, logger: logger}
}

func (w *walker) newResult() *result.Result {
	return result.New(result.WithLogger(w.logger))
}

// prune filters cat in place. The returned Result carries the IDs of every
// parameter referenced by a kept control; its entities are already applied.
func (w *walker) prune(cat *domain.Catalog) (*result.Result, error) {
	controls, groups := cat.Controls, cat.Groups
	cat.Controls, cat.Groups = nil, nil

	res := w.newResult()
	for _, c := range controls {
		r, err := w.walkControl(c)
		if err != nil {
			return nil, err
		}
		res.Append(r)
	}
	for _, g := range groups {
		r, keep, err := w.walkGroup(g)
		if err != nil {
			return nil, err
		}
		if keep {
			cat.AddGroup(g)
		}
		res.Append(r)
	}

	if err := w.apply(res, cat, nil); err != nil {
		return nil, err
	}
	if err := w.apply(w.strandedParams(res, cat), cat, nil); err != nil {
		return nil, err
	}
	return requiredOnly(w.newResult(), res), nil
}

// strandedParams collects dropped params that a kept control in another
// branch references and that the pruned catalog no longer defines.
func (w *walker) strandedParams(res *result.Result, cat *domain.Catalog) *result.Result {
	out := w.newResult()
	seen := make(map[string]bool)
	for _, p := range w.dropped {
		if seen[p.ID] || !res.IsParameterRequired(p.ID) || cat.FindParam(p.ID) != nil {
			continue
		}
		seen[p.ID] = true
		out.PromoteParameter(p)
	}
	return out
}

// keepRequired promotes the params res requires and sets the rest aside.
func (w *walker) keepRequired(res *result.Result, params []*domain.Parameter) {
	for _, p := range params {
		if res.IsParameterRequired(p.ID) {
			res.PromoteParameter(p)
		} else {
			w.dropped = append(w.dropped, p)
		}
	}
}

// walkControl returns the Result handed to the enclosing scope: either c
// itself, or the descendants that survive without it.
func (w *walker) walkControl(c *domain.Control) (*result.Result, error) {
	children := c.Controls
	c.Controls = nil

	below := w.newResult()
	for _, child := range children {
		r, err := w.walkControl(child)
		if err != nil {
			return nil, err
		}
		below.Append(r)
	}

	if w.selector.IsSelected(c) {
		if err := w.apply(below, c, c); err != nil {
			return nil, err
		}
		w.stats.KeptControls++

		out := requiredOnly(w.newResult(), below)
		out.RequireParameters(c.ParamReferences()...)
		out.PromoteControl(c)
		return out, nil
	}

	w.keepRequired(below, c.Params)
	return below, nil
}

// walkGroup reports whether g survives. A group survives when it still holds
// a control or a surviving subgroup.
func (w *walker) walkGroup(g *domain.Group) (*result.Result, bool, error) {
	controls, groups := g.Controls, g.Groups
	g.Controls, g.Groups = nil, nil

	res := w.newResult()
	for _, c := range controls {
		r, err := w.walkControl(c)
		if err != nil {
			return nil, false, err
		}
		res.Append(r)
	}
	for _, sub := range groups {
		r, keep, err := w.walkGroup(sub)
		if err != nil {
			return nil, false, err
		}
		if keep {
			g.AddGroup(sub)
		}
		res.Append(r)
	}

	if _, ctrls := res.Len(); ctrls > 0 || len(g.Groups) > 0 {
		if err := w.apply(res, g, nil); err != nil {
			return nil, false, err
		}
		return requiredOnly(w.newResult(), res), true, nil
	}

	w.keepRequired(res, g.Params)
	w.logger.Debug("dropping group", "group_id", g.ID)
	return res, false, nil
}

// apply attaches res to dest and records how many entities moved.
// A control counts as promoted when its current parent is not the scope it lands in.
func (w *walker) apply(res *result.Result, dest domain.Scope, newParent *domain.Control) error {
	for _, c := range res.PromotedControls() {
		if c.Parent() != newParent {
			w.stats.PromotedControls++
		}
	}
	w.stats.PromotedParams += len(res.PromotedParameters())
	return res.ApplyTo(dest)
}

func requiredOnly(dst, src *result.Result) *result.Result {
	dst.RequireParameters(src.RequiredParameterIDs()...)
	return dst
}
