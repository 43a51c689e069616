package loam

// ProfileMetadata is the frontmatter of a profile document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
//
// A document either carries the profile sections at the top level of its
// frontmatter (Markdown), or is a plain OSCAL JSON/YAML file wrapped in a
// "profile" key.
type ProfileMetadata struct {
	ID           string `json:"id" mapstructure:"id"`
	UUID         string `json:"uuid" mapstructure:"uuid"`
	Title        string `json:"title" mapstructure:"title"`
	Version      string `json:"version" mapstructure:"version"`
	OSCALVersion string `json:"oscal-version" mapstructure:"oscal-version"`

	// Sections are kept raw and decoded into domain types by the loader.
	Imports []any          `json:"imports" mapstructure:"imports"`
	Merge   map[string]any `json:"merge" mapstructure:"merge"`
	Modify  map[string]any `json:"modify" mapstructure:"modify"`

	// Profile holds the whole definition for OSCAL-wrapped documents.
	Profile map[string]any `json:"profile" mapstructure:"profile"`
}
