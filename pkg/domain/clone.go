package domain

// Clone returns a deep copy of the catalog with parent links restored.
// Resolution mutates the tree it walks, so sources are cloned first.
func (c *Catalog) Clone() *Catalog {
	if c == nil {
		return nil
	}
	out := &Catalog{
		UUID:     c.UUID,
		Metadata: c.Metadata,
		Params:   cloneParams(c.Params),
		Controls: cloneControls(c.Controls),
		Groups:   cloneGroups(c.Groups),
	}
	out.Metadata.Props = append([]Property(nil), c.Metadata.Props...)
	if c.BackMatter != nil {
		out.BackMatter = &BackMatter{Resources: append([]Resource(nil), c.BackMatter.Resources...)}
	}
	out.LinkParents()
	return out
}

// Clone returns a deep copy of the parameter.
func (p *Parameter) Clone() *Parameter {
	if p == nil {
		return nil
	}
	out := *p
	out.Values = append([]string(nil), p.Values...)
	out.Guidelines = append([]Guideline(nil), p.Guidelines...)
	out.Props = append([]Property(nil), p.Props...)
	out.Constraints = append([]Constraint(nil), p.Constraints...)
	if p.Select != nil {
		sel := *p.Select
		sel.Choice = append([]string(nil), p.Select.Choice...)
		out.Select = &sel
	}
	return &out
}

// Clone returns a deep copy of the control subtree. The copy's parent link is nil.
func (c *Control) Clone() *Control {
	if c == nil {
		return nil
	}
	out := &Control{
		ID:       c.ID,
		Class:    c.Class,
		Title:    c.Title,
		Params:   cloneParams(c.Params),
		Props:    append([]Property(nil), c.Props...),
		Links:    append([]Link(nil), c.Links...),
		Parts:    cloneParts(c.Parts),
		Controls: cloneControls(c.Controls),
	}
	out.LinkParents()
	return out
}

// Clone returns a deep copy of the group subtree.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	return &Group{
		ID:       g.ID,
		Class:    g.Class,
		Title:    g.Title,
		Params:   cloneParams(g.Params),
		Props:    append([]Property(nil), g.Props...),
		Parts:    cloneParts(g.Parts),
		Groups:   cloneGroups(g.Groups),
		Controls: cloneControls(g.Controls),
	}
}

// Clone returns a deep copy of the part subtree.
func (p *Part) Clone() *Part {
	if p == nil {
		return nil
	}
	out := *p
	out.Props = append([]Property(nil), p.Props...)
	out.Parts = cloneParts(p.Parts)
	return &out
}

func cloneParams(in []*Parameter) []*Parameter {
	if in == nil {
		return nil
	}
	out := make([]*Parameter, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func cloneControls(in []*Control) []*Control {
	if in == nil {
		return nil
	}
	out := make([]*Control, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func cloneGroups(in []*Group) []*Group {
	if in == nil {
		return nil
	}
	out := make([]*Group, len(in))
	for i, g := range in {
		out[i] = g.Clone()
	}
	return out
}

func cloneParts(in []*Part) []*Part {
	if in == nil {
		return nil
	}
	out := make([]*Part, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
