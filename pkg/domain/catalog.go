package domain

import "time"

// Catalog is the root document type holding top-level params, controls and groups.
type Catalog struct {
	UUID       string       `json:"uuid" yaml:"uuid"`
	Metadata   Metadata     `json:"metadata" yaml:"metadata"`
	Params     []*Parameter `json:"params,omitempty" yaml:"params,omitempty"`
	Controls   []*Control   `json:"controls,omitempty" yaml:"controls,omitempty"`
	Groups     []*Group     `json:"groups,omitempty" yaml:"groups,omitempty"`
	BackMatter *BackMatter  `json:"back-matter,omitempty" yaml:"back-matter,omitempty"`
}

// Metadata describes a document.
type Metadata struct {
	Title        string     `json:"title" yaml:"title" mapstructure:"title"`
	Version      string     `json:"version,omitempty" yaml:"version,omitempty" mapstructure:"version"`
	OSCALVersion string     `json:"oscal-version,omitempty" yaml:"oscal-version,omitempty" mapstructure:"oscal-version"`
	LastModified *time.Time `json:"last-modified,omitempty" yaml:"last-modified,omitempty" mapstructure:"-"`
	Props        []Property `json:"props,omitempty" yaml:"props,omitempty" mapstructure:"props"`
	Remarks      string     `json:"remarks,omitempty" yaml:"remarks,omitempty" mapstructure:"remarks"`
}

// BackMatter holds resources cited by the document.
type BackMatter struct {
	Resources []Resource `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// Resource is a back-matter citation.
type Resource struct {
	UUID  string `json:"uuid" yaml:"uuid"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Href  string `json:"href,omitempty" yaml:"href,omitempty"`
}

// Group is a named collection node holding controls and nested groups.
type Group struct {
	ID       string       `json:"id,omitempty" yaml:"id,omitempty"`
	Class    string       `json:"class,omitempty" yaml:"class,omitempty"`
	Title    string       `json:"title" yaml:"title"`
	Params   []*Parameter `json:"params,omitempty" yaml:"params,omitempty"`
	Props    []Property   `json:"props,omitempty" yaml:"props,omitempty"`
	Parts    []*Part      `json:"parts,omitempty" yaml:"parts,omitempty"`
	Groups   []*Group     `json:"groups,omitempty" yaml:"groups,omitempty"`
	Controls []*Control   `json:"controls,omitempty" yaml:"controls,omitempty"`
}

// Control is a tree node representing a requirement.
// The parent link is a weak back-reference: it never owns the parent and is
// not serialized. Call LinkParents after decoding to restore it.
type Control struct {
	ID       string       `json:"id" yaml:"id"`
	Class    string       `json:"class,omitempty" yaml:"class,omitempty"`
	Title    string       `json:"title" yaml:"title"`
	Params   []*Parameter `json:"params,omitempty" yaml:"params,omitempty"`
	Props    []Property   `json:"props,omitempty" yaml:"props,omitempty"`
	Links    []Link       `json:"links,omitempty" yaml:"links,omitempty"`
	Parts    []*Part      `json:"parts,omitempty" yaml:"parts,omitempty"`
	Controls []*Control   `json:"controls,omitempty" yaml:"controls,omitempty"`

	parent *Control
}

// Parameter is a named, possibly-required variable referenced by controls.
type Parameter struct {
	ID          string       `json:"id" yaml:"id" mapstructure:"id"`
	Class       string       `json:"class,omitempty" yaml:"class,omitempty" mapstructure:"class"`
	Label       string       `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Usage       string       `json:"usage,omitempty" yaml:"usage,omitempty" mapstructure:"usage"`
	Values      []string     `json:"values,omitempty" yaml:"values,omitempty" mapstructure:"values"`
	Select      *ParamSelect `json:"select,omitempty" yaml:"select,omitempty" mapstructure:"select"`
	Guidelines  []Guideline  `json:"guidelines,omitempty" yaml:"guidelines,omitempty" mapstructure:"guidelines"`
	Props       []Property   `json:"props,omitempty" yaml:"props,omitempty" mapstructure:"props"`
	Constraints []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty" mapstructure:"constraints"`
}

// ParamSelect presents a choice of values for a parameter.
type ParamSelect struct {
	HowMany string   `json:"how-many,omitempty" yaml:"how-many,omitempty" mapstructure:"how-many"`
	Choice  []string `json:"choice,omitempty" yaml:"choice,omitempty" mapstructure:"choice"`
}

// Guideline is prose guidance on how to set a parameter.
type Guideline struct {
	Prose string `json:"prose" yaml:"prose" mapstructure:"prose"`
}

// Constraint restricts the values a parameter accepts.
type Constraint struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// Part is a structured section of control or group content.
type Part struct {
	ID    string     `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Name  string     `json:"name" yaml:"name" mapstructure:"name"`
	Class string     `json:"class,omitempty" yaml:"class,omitempty" mapstructure:"class"`
	Title string     `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Props []Property `json:"props,omitempty" yaml:"props,omitempty" mapstructure:"props"`
	Prose string     `json:"prose,omitempty" yaml:"prose,omitempty" mapstructure:"prose"`
	Parts []*Part    `json:"parts,omitempty" yaml:"parts,omitempty" mapstructure:"parts"`
}

// Property is a name/value annotation.
type Property struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Value string `json:"value" yaml:"value" mapstructure:"value"`
	NS    string `json:"ns,omitempty" yaml:"ns,omitempty" mapstructure:"ns"`
	Class string `json:"class,omitempty" yaml:"class,omitempty" mapstructure:"class"`
}

// Link references another resource.
type Link struct {
	Href string `json:"href" yaml:"href"`
	Rel  string `json:"rel,omitempty" yaml:"rel,omitempty"`
}

// AddParam appends a parameter to the catalog root.
func (c *Catalog) AddParam(p *Parameter) {
	c.Params = append(c.Params, p)
}

// AddControl appends a top-level control.
func (c *Catalog) AddControl(ctrl *Control) {
	c.Controls = append(c.Controls, ctrl)
}

// AddGroup appends a top-level group.
func (c *Catalog) AddGroup(g *Group) {
	c.Groups = append(c.Groups, g)
}

// ScopeID implements Scope.
func (c *Catalog) ScopeID() string {
	return c.UUID
}

// AddParam appends a parameter to the group.
func (g *Group) AddParam(p *Parameter) {
	g.Params = append(g.Params, p)
}

// AddControl appends a control to the group.
func (g *Group) AddControl(ctrl *Control) {
	g.Controls = append(g.Controls, ctrl)
}

// AddGroup appends a nested group.
func (g *Group) AddGroup(sub *Group) {
	g.Groups = append(g.Groups, sub)
}

// ScopeID implements Scope.
func (g *Group) ScopeID() string {
	return g.ID
}

// AddParam appends a parameter to the control.
func (c *Control) AddParam(p *Parameter) {
	c.Params = append(c.Params, p)
}

// AddControl appends a nested control. It does not touch the child's parent link.
func (c *Control) AddControl(child *Control) {
	c.Controls = append(c.Controls, child)
}

// ScopeID implements Scope.
func (c *Control) ScopeID() string {
	return c.ID
}

// Parent returns the enclosing control, or nil for a top-level control.
func (c *Control) Parent() *Control {
	return c.parent
}

// SetParent rewrites the parent link.
func (c *Control) SetParent(parent *Control) {
	c.parent = parent
}
