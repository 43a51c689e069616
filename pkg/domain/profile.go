package domain

// Profile selects and reorganizes controls drawn from one or more catalogs.
type Profile struct {
	UUID       string      `json:"uuid" yaml:"uuid" mapstructure:"uuid"`
	Metadata   Metadata    `json:"metadata" yaml:"metadata" mapstructure:"metadata"`
	Imports    []Import    `json:"imports" yaml:"imports" mapstructure:"imports"`
	Merge      *Merge      `json:"merge,omitempty" yaml:"merge,omitempty" mapstructure:"merge"`
	Modify     *Modify     `json:"modify,omitempty" yaml:"modify,omitempty" mapstructure:"modify"`
	BackMatter *BackMatter `json:"back-matter,omitempty" yaml:"back-matter,omitempty" mapstructure:"-"`
}

// ProfileScheme prefixes import hrefs that point at another profile in the repository.
const ProfileScheme = "profile:"

// Import references a source catalog (or profile) and the controls selected from it.
type Import struct {
	Href            string      `json:"href" yaml:"href" mapstructure:"href"`
	IncludeAll      *IncludeAll `json:"include-all,omitempty" yaml:"include-all,omitempty" mapstructure:"include-all"`
	IncludeControls []Selection `json:"include-controls,omitempty" yaml:"include-controls,omitempty" mapstructure:"include-controls"`
	ExcludeControls []Selection `json:"exclude-controls,omitempty" yaml:"exclude-controls,omitempty" mapstructure:"exclude-controls"`
}

// IncludeAll selects every control of the imported catalog.
type IncludeAll struct{}

// Selection names controls by ID.
type Selection struct {
	// WithChildControls is "yes" to also select every descendant.
	WithChildControls string   `json:"with-child-controls,omitempty" yaml:"with-child-controls,omitempty" mapstructure:"with-child-controls"`
	WithIDs           []string `json:"with-ids,omitempty" yaml:"with-ids,omitempty" mapstructure:"with-ids"`
}

// IncludesChildren reports whether descendants of the named controls are selected too.
func (s Selection) IncludesChildren() bool {
	return s.WithChildControls == "yes"
}

// Combine methods for controls and params that share an ID across imports.
const (
	CombineKeep     = "keep"
	CombineUseFirst = "use-first"
	CombineMerge    = "merge"
)

// Merge holds the structuring directives of a profile.
type Merge struct {
	Combine *Combine `json:"combine,omitempty" yaml:"combine,omitempty" mapstructure:"combine"`
	Flat    *Flat    `json:"flat,omitempty" yaml:"flat,omitempty" mapstructure:"flat"`
	AsIs    bool     `json:"as-is,omitempty" yaml:"as-is,omitempty" mapstructure:"as-is"`
}

// Combine selects how same-ID entities from different imports are reconciled.
type Combine struct {
	Method string `json:"method,omitempty" yaml:"method,omitempty" mapstructure:"method"`
}

// Flat discards group structure.
type Flat struct{}

// CombineMethod returns the effective combine method, defaulting to keep.
func (m *Merge) CombineMethod() string {
	if m == nil || m.Combine == nil || m.Combine.Method == "" {
		return CombineKeep
	}
	return m.Combine.Method
}

// Structured reports whether group structure is preserved.
func (m *Merge) Structured() bool {
	return m != nil && m.AsIs && m.Flat == nil
}

// Modify holds parameter settings and control alterations.
type Modify struct {
	SetParameters []SetParameter `json:"set-parameters,omitempty" yaml:"set-parameters,omitempty" mapstructure:"set-parameters"`
	Alters        []Alter        `json:"alters,omitempty" yaml:"alters,omitempty" mapstructure:"alters"`
}

// SetParameter overrides the content of a parameter.
type SetParameter struct {
	ParamID string       `json:"param-id" yaml:"param-id" mapstructure:"param-id"`
	Label   string       `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Values  []string     `json:"values,omitempty" yaml:"values,omitempty" mapstructure:"values"`
	Select  *ParamSelect `json:"select,omitempty" yaml:"select,omitempty" mapstructure:"select"`
	Props   []Property   `json:"props,omitempty" yaml:"props,omitempty" mapstructure:"props"`
}

// Alter edits a single control.
type Alter struct {
	ControlID string   `json:"control-id" yaml:"control-id" mapstructure:"control-id"`
	Removes   []Remove `json:"removes,omitempty" yaml:"removes,omitempty" mapstructure:"removes"`
	Adds      []Add    `json:"adds,omitempty" yaml:"adds,omitempty" mapstructure:"adds"`
}

// Add positions.
const (
	PositionStarting = "starting"
	PositionEnding   = "ending"
	PositionBefore   = "before"
	PositionAfter    = "after"
)

// Add inserts content into a control, or relative to one of its parts.
type Add struct {
	Position string       `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`
	ByID     string       `json:"by-id,omitempty" yaml:"by-id,omitempty" mapstructure:"by-id"`
	Title    string       `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Params   []*Parameter `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
	Props    []Property   `json:"props,omitempty" yaml:"props,omitempty" mapstructure:"props"`
	Parts    []*Part      `json:"parts,omitempty" yaml:"parts,omitempty" mapstructure:"parts"`
}

// Remove drops parts and props matching every non-empty criterion.
type Remove struct {
	ByName  string `json:"by-name,omitempty" yaml:"by-name,omitempty" mapstructure:"by-name"`
	ByClass string `json:"by-class,omitempty" yaml:"by-class,omitempty" mapstructure:"by-class"`
	ByID    string `json:"by-id,omitempty" yaml:"by-id,omitempty" mapstructure:"by-id"`
}
