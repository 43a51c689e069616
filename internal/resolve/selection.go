package resolve

import (
	"fmt"

	"bitbucket.org/creachadair/stringset"
	"github.com/aretw0/espalier/pkg/domain"
)

// Selector decides which controls of a source catalog an import keeps.
type Selector struct {
	href     string
	selected stringset.Set
}

// NewSelector evaluates the include and exclude directives of imp against catalog.
// An import without include directives selects every control. Excludes are
// applied after includes and always win.
func NewSelector(imp domain.Import, catalog *domain.Catalog) (*Selector, error) {
	s := &Selector{href: imp.Href, selected: stringset.New()}

	if imp.IncludeAll != nil || len(imp.IncludeControls) == 0 {
		for _, c := range catalog.AllControls() {
			s.selected.Add(c.ID)
		}
	} else {
		for _, sel := range imp.IncludeControls {
			ids, err := s.expand(sel, catalog)
			if err != nil {
				return nil, err
			}
			s.selected.Add(ids...)
		}
	}

	for _, sel := range imp.ExcludeControls {
		ids, err := s.expand(sel, catalog)
		if err != nil {
			return nil, err
		}
		s.selected.Discard(ids...)
	}
	return s, nil
}

func (s *Selector) expand(sel domain.Selection, catalog *domain.Catalog) ([]string, error) {
	var ids []string
	for _, id := range sel.WithIDs {
		c := catalog.FindControl(id)
		if c == nil {
			return nil, fmt.Errorf("import %s: %w: %s", s.href, domain.ErrUnknownControl, id)
		}
		ids = append(ids, id)
		if sel.IncludesChildren() {
			for _, d := range c.Descendants() {
				ids = append(ids, d.ID)
			}
		}
	}
	return ids, nil
}

// IsSelected reports whether c is kept by the import.
func (s *Selector) IsSelected(c *domain.Control) bool {
	return s.selected.Contains(c.ID)
}

// Len returns the number of selected control IDs.
func (s *Selector) Len() int {
	return s.selected.Len()
}
