package domain

import (
	"regexp"
)

var insertParamPattern = regexp.MustCompile(`\{\{\s*insert:\s*param\s*,\s*([^\s}]+)\s*\}\}`)

// LinkParents restores the parent links of every control in the catalog.
// Top-level controls, including those directly under groups, get a nil parent.
func (c *Catalog) LinkParents() {
	for _, ctrl := range c.Controls {
		ctrl.parent = nil
		ctrl.LinkParents()
	}
	for _, g := range c.Groups {
		g.LinkParents()
	}
}

// LinkParents restores the parent links of every control in the group.
func (g *Group) LinkParents() {
	for _, ctrl := range g.Controls {
		ctrl.parent = nil
		ctrl.LinkParents()
	}
	for _, sub := range g.Groups {
		sub.LinkParents()
	}
}

// LinkParents points every nested control at its enclosing control.
func (c *Control) LinkParents() {
	for _, child := range c.Controls {
		child.parent = c
		child.LinkParents()
	}
}

// AllControls returns every control in the catalog, depth-first in document order.
func (c *Catalog) AllControls() []*Control {
	var out []*Control
	for _, ctrl := range c.Controls {
		out = ctrl.appendDescendants(append(out, ctrl))
	}
	for _, g := range c.Groups {
		out = g.appendControls(out)
	}
	return out
}

func (g *Group) appendControls(out []*Control) []*Control {
	for _, ctrl := range g.Controls {
		out = ctrl.appendDescendants(append(out, ctrl))
	}
	for _, sub := range g.Groups {
		out = sub.appendControls(out)
	}
	return out
}

func (c *Control) appendDescendants(out []*Control) []*Control {
	for _, child := range c.Controls {
		out = child.appendDescendants(append(out, child))
	}
	return out
}

// Descendants returns every control nested under c, depth-first.
func (c *Control) Descendants() []*Control {
	return c.appendDescendants(nil)
}

// AllParams returns every parameter in the catalog in document order:
// root params first, then params of each control and group as they are walked.
func (c *Catalog) AllParams() []*Parameter {
	out := append([]*Parameter(nil), c.Params...)
	for _, ctrl := range c.Controls {
		out = ctrl.appendParams(out)
	}
	for _, g := range c.Groups {
		out = g.appendParams(out)
	}
	return out
}

func (g *Group) appendParams(out []*Parameter) []*Parameter {
	out = append(out, g.Params...)
	for _, ctrl := range g.Controls {
		out = ctrl.appendParams(out)
	}
	for _, sub := range g.Groups {
		out = sub.appendParams(out)
	}
	return out
}

func (c *Control) appendParams(out []*Parameter) []*Parameter {
	out = append(out, c.Params...)
	for _, child := range c.Controls {
		out = child.appendParams(out)
	}
	return out
}

// FindControl looks a control up by ID anywhere in the catalog.
func (c *Catalog) FindControl(id string) *Control {
	for _, ctrl := range c.AllControls() {
		if ctrl.ID == id {
			return ctrl
		}
	}
	return nil
}

// FindParam looks a parameter up by ID anywhere in the catalog.
func (c *Catalog) FindParam(id string) *Parameter {
	for _, p := range c.AllParams() {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ParamReferences returns the IDs of parameters inserted into the control's
// own prose and the guidance of its own params, in order of first appearance.
// Nested controls are not inspected.
func (c *Control) ParamReferences() []string {
	seen := make(map[string]bool)
	var ids []string
	collect := func(text string) {
		for _, m := range insertParamPattern.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				ids = append(ids, m[1])
			}
		}
	}

	var visit func(parts []*Part)
	visit = func(parts []*Part) {
		for _, p := range parts {
			collect(p.Title)
			collect(p.Prose)
			visit(p.Parts)
		}
	}
	collect(c.Title)
	visit(c.Parts)
	for _, p := range c.Params {
		collect(p.Label)
		for _, g := range p.Guidelines {
			collect(g.Prose)
		}
	}
	return ids
}
