package dsl

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// Item contributes content to the enclosing catalog, group, control or part.
type Item func(*frame)

// frame exposes the slices an Item may append to. Fields the enclosing
// element does not have are nil.
type frame struct {
	kind     string
	params   *[]*domain.Parameter
	controls *[]*domain.Control
	groups   *[]*domain.Group
	parts    *[]*domain.Part
	props    *[]domain.Property
}

func (f *frame) need(what string, ok bool) {
	if !ok {
		panic(fmt.Sprintf("dsl: %s cannot hold %s", f.kind, what))
	}
}

func apply(f *frame, items []Item) {
	for _, item := range items {
		item(f)
	}
}

// Catalog builds a catalog with parent links set.
func Catalog(title string, items ...Item) *domain.Catalog {
	cat := &domain.Catalog{
		UUID:     fmt.Sprintf("catalog-%s", slug(title)),
		Metadata: domain.Metadata{Title: title, OSCALVersion: "1.1.2"},
	}
	apply(&frame{
		kind:     "catalog",
		params:   &cat.Params,
		controls: &cat.Controls,
		groups:   &cat.Groups,
	}, items)
	cat.LinkParents()
	return cat
}

// Group adds a group.
func Group(id, title string, items ...Item) Item {
	return func(f *frame) {
		f.need("groups", f.groups != nil)
		g := &domain.Group{ID: id, Title: title}
		apply(&frame{
			kind:     "group " + id,
			params:   &g.Params,
			controls: &g.Controls,
			groups:   &g.Groups,
			parts:    &g.Parts,
			props:    &g.Props,
		}, items)
		*f.groups = append(*f.groups, g)
	}
}

// Control adds a control. Nested Control items become child controls.
func Control(id, title string, items ...Item) Item {
	return func(f *frame) {
		f.need("controls", f.controls != nil)
		c := &domain.Control{ID: id, Title: title}
		apply(&frame{
			kind:     "control " + id,
			params:   &c.Params,
			controls: &c.Controls,
			parts:    &c.Parts,
			props:    &c.Props,
		}, items)
		*f.controls = append(*f.controls, c)
	}
}

// Param adds a parameter with optional values.
func Param(id string, values ...string) Item {
	return ParamWith(&domain.Parameter{ID: id, Values: values})
}

// ParamWith adds a fully specified parameter.
func ParamWith(p *domain.Parameter) Item {
	return func(f *frame) {
		f.need("params", f.params != nil)
		*f.params = append(*f.params, p)
	}
}

// Prop adds a property.
func Prop(name, value string) Item {
	return func(f *frame) {
		f.need("props", f.props != nil)
		*f.props = append(*f.props, domain.Property{Name: name, Value: value})
	}
}

// Part adds a part. Nested Part and Prop items attach to it.
func Part(id, name, prose string, items ...Item) Item {
	return func(f *frame) {
		f.need("parts", f.parts != nil)
		p := &domain.Part{ID: id, Name: name, Prose: prose}
		apply(&frame{
			kind:  "part " + id,
			parts: &p.Parts,
			props: &p.Props,
		}, items)
		*f.parts = append(*f.parts, p)
	}
}

// Statement adds a "statement" part.
func Statement(prose string, items ...Item) Item {
	return Part("", "statement", prose, items...)
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			if len(out) > 0 && out[len(out)-1] != '-' {
				out = append(out, '-')
			}
		}
	}
	return string(out)
}
