package resolve

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/result"
)

// applyModify applies parameter settings, then alterations, to the merged catalog.
// The returned Result carries the parameter IDs referenced by altered controls.
func applyModify(cat *domain.Catalog, mod *domain.Modify, logger *slog.Logger) (*result.Result, error) {
	req := result.New(result.WithLogger(logger))
	if mod == nil {
		return req, nil
	}

	for _, sp := range mod.SetParameters {
		if err := setParameter(cat, sp); err != nil {
			return nil, err
		}
	}

	for _, alt := range mod.Alters {
		ctrl := cat.FindControl(alt.ControlID)
		if ctrl == nil {
			return nil, fmt.Errorf("alter: %w: %s", domain.ErrUnknownControl, alt.ControlID)
		}
		for _, rm := range alt.Removes {
			removeFromControl(ctrl, rm)
		}
		for _, add := range alt.Adds {
			if err := addToControl(ctrl, add, logger); err != nil {
				return nil, fmt.Errorf("alter %s: %w", alt.ControlID, err)
			}
		}
		req.RequireParameters(ctrl.ParamReferences()...)
	}
	return req, nil
}

// setParameter updates every parameter carrying the ID; with combine "keep"
// there may be more than one.
func setParameter(cat *domain.Catalog, sp domain.SetParameter) error {
	found := false
	for _, p := range cat.AllParams() {
		if p.ID != sp.ParamID {
			continue
		}
		found = true
		if sp.Label != "" {
			p.Label = sp.Label
		}
		if sp.Values != nil {
			p.Values = append([]string(nil), sp.Values...)
		}
		if sp.Select != nil {
			sel := *sp.Select
			sel.Choice = append([]string(nil), sp.Select.Choice...)
			p.Select = &sel
		}
		p.Props = append(p.Props, sp.Props...)
	}
	if !found {
		return fmt.Errorf("set-parameter: %w: %s", domain.ErrUnknownParameter, sp.ParamID)
	}
	return nil
}

// removeFromControl drops props and parts (at any depth) matching every
// non-empty criterion of rm. A remove without criteria matches nothing.
func removeFromControl(ctrl *domain.Control, rm domain.Remove) {
	if rm.ByName == "" && rm.ByClass == "" && rm.ByID == "" {
		return
	}
	ctrl.Props = removeProps(ctrl.Props, rm)
	ctrl.Parts = removeParts(ctrl.Parts, rm)
}

func removeProps(props []domain.Property, rm domain.Remove) []domain.Property {
	if rm.ByID != "" {
		// Properties carry no ID.
		return props
	}
	out := props[:0]
	for _, p := range props {
		if matches(rm, p.Name, p.Class, "") {
			continue
		}
		out = append(out, p)
	}
	return out
}

func removeParts(parts []*domain.Part, rm domain.Remove) []*domain.Part {
	out := parts[:0]
	for _, p := range parts {
		if matches(rm, p.Name, p.Class, p.ID) {
			continue
		}
		p.Props = removeProps(p.Props, rm)
		p.Parts = removeParts(p.Parts, rm)
		out = append(out, p)
	}
	return out
}

func matches(rm domain.Remove, name, class, id string) bool {
	if rm.ByName != "" && rm.ByName != name {
		return false
	}
	if rm.ByClass != "" && rm.ByClass != class {
		return false
	}
	if rm.ByID != "" && rm.ByID != id {
		return false
	}
	return true
}

func addToControl(ctrl *domain.Control, add domain.Add, logger *slog.Logger) error {
	position := add.Position
	if position == "" {
		position = domain.PositionEnding
	}

	if add.ByID == "" {
		switch position {
		case domain.PositionStarting, domain.PositionEnding:
		default:
			return fmt.Errorf("position %q requires by-id", position)
		}
		if add.Title != "" {
			ctrl.Title = add.Title
		}
		if err := addParams(ctrl, add.Params, position == domain.PositionStarting, logger); err != nil {
			return err
		}
		ctrl.Props = insertProps(ctrl.Props, add.Props, position == domain.PositionStarting)
		ctrl.Parts = insertParts(ctrl.Parts, add.Parts, position == domain.PositionStarting)
		return nil
	}

	if err := addParams(ctrl, add.Params, false, logger); err != nil {
		return err
	}

	siblings, idx := locatePart(&ctrl.Parts, add.ByID)
	if siblings == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnknownPart, add.ByID)
	}
	target := (*siblings)[idx]

	switch position {
	case domain.PositionStarting, domain.PositionEnding:
		starting := position == domain.PositionStarting
		if add.Title != "" {
			target.Title = add.Title
		}
		target.Props = insertProps(target.Props, add.Props, starting)
		target.Parts = insertParts(target.Parts, add.Parts, starting)
	case domain.PositionBefore, domain.PositionAfter:
		at := idx
		if position == domain.PositionAfter {
			at = idx + 1
		}
		grown := make([]*domain.Part, 0, len(*siblings)+len(add.Parts))
		grown = append(grown, (*siblings)[:at]...)
		grown = append(grown, cloneParts(add.Parts)...)
		grown = append(grown, (*siblings)[at:]...)
		*siblings = grown
		// Siblings of a part cannot hold props, so they go to the control.
		ctrl.Props = insertProps(ctrl.Props, add.Props, false)
	default:
		return fmt.Errorf("unsupported position %q", position)
	}
	return nil
}

// addParams attaches new params to ctrl through a Result, so alterations and
// resolution share one attachment path.
func addParams(ctrl *domain.Control, params []*domain.Parameter, starting bool, logger *slog.Logger) error {
	if len(params) == 0 {
		return nil
	}
	res := result.New(result.WithLogger(logger))
	for _, p := range params {
		res.PromoteParameter(p.Clone())
	}

	existing := ctrl.Params
	if starting {
		ctrl.Params = nil
	}
	if err := res.ApplyTo(ctrl); err != nil {
		ctrl.Params = existing
		return err
	}
	if starting {
		ctrl.Params = append(ctrl.Params, existing...)
	}
	return nil
}

func insertProps(dst, add []domain.Property, starting bool) []domain.Property {
	if len(add) == 0 {
		return dst
	}
	if starting {
		return append(append([]domain.Property(nil), add...), dst...)
	}
	return append(dst, add...)
}

func insertParts(dst, add []*domain.Part, starting bool) []*domain.Part {
	if len(add) == 0 {
		return dst
	}
	cloned := cloneParts(add)
	if starting {
		return append(cloned, dst...)
	}
	return append(dst, cloned...)
}

func cloneParts(parts []*domain.Part) []*domain.Part {
	out := make([]*domain.Part, len(parts))
	for i, p := range parts {
		out[i] = p.Clone()
	}
	return out
}

// locatePart finds the part with the given ID at any depth and returns the
// slice holding it plus its index.
func locatePart(parts *[]*domain.Part, id string) (*[]*domain.Part, int) {
	for i, p := range *parts {
		if p.ID == id {
			return parts, i
		}
		if s, idx := locatePart(&p.Parts, id); s != nil {
			return s, idx
		}
	}
	return nil, -1
}

func findPart(parts []*domain.Part, id string) *domain.Part {
	if s, idx := locatePart(&parts, id); s != nil {
		return (*s)[idx]
	}
	return nil
}
