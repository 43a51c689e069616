package domain

// Scope is a destination that can directly own parameters and controls.
// Catalog, Group and Control implement it; mutators append to the end and
// preserve prior entries.
type Scope interface {
	AddParam(p *Parameter)
	AddControl(c *Control)
	// ScopeID identifies the scope in logs. Catalogs report their UUID.
	ScopeID() string
}

var (
	_ Scope = (*Catalog)(nil)
	_ Scope = (*Group)(nil)
	_ Scope = (*Control)(nil)
)
