package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Overlay contains resolution data to visualize on the graph.
type Overlay struct {
	// Required parameter IDs. When set, params are drawn and required ones are styled.
	Required []string
	// Highlight names controls to emphasize, e.g. the targets of alterations.
	Highlight []string
}

// GenerateMermaid produces a Mermaid flowchart of the catalog tree.
// Shapes:
// - Catalog: ((Circle))
// - Group: [[Subroutine]]
// - Control: [Rectangle]
// - Param: [/Parallelogram/] (only with an overlay carrying Required IDs)
// Nested controls hang off their parent with a dotted arrow.
func GenerateMermaid(cat *domain.Catalog, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	showParams := overlay != nil && overlay.Required != nil
	root := "catalog"
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", root, escapeLabel(cat.Metadata.Title)))

	var writeParams func(from string, params []*domain.Parameter)
	writeParams = func(from string, params []*domain.Parameter) {
		if !showParams {
			return
		}
		for _, p := range params {
			safeID := "param_" + sanitizeMermaidID(p.ID)
			sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", safeID, p.ID))
			sb.WriteString(fmt.Sprintf("    %s --- %s\n", from, safeID))
		}
	}

	var writeControls func(from string, ctrls []*domain.Control, nested bool)
	writeControls = func(from string, ctrls []*domain.Control, nested bool) {
		for _, c := range ctrls {
			safeID := sanitizeMermaidID(c.ID)
			label := c.ID
			if c.Title != "" {
				label = fmt.Sprintf("%s <br/> %s", c.ID, escapeLabel(c.Title))
			}
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, label))

			arrow := "-->"
			if nested {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, safeID))

			writeParams(safeID, c.Params)
			writeControls(safeID, c.Controls, true)
		}
	}

	var writeGroup func(from string, g *domain.Group)
	writeGroup = func(from string, g *domain.Group) {
		safeID := "group_" + sanitizeMermaidID(g.ID)
		sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", safeID, escapeLabel(g.Title)))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, safeID))
		writeParams(safeID, g.Params)
		writeControls(safeID, g.Controls, false)
		for _, sub := range g.Groups {
			writeGroup(safeID, sub)
		}
	}

	writeParams(root, cat.Params)
	writeControls(root, cat.Controls, false)
	for _, g := range cat.Groups {
		writeGroup(root, g)
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef required fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef highlight fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Required {
			safeID := "param_" + sanitizeMermaidID(id)
			if !seen[safeID] && id != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s required;\n", safeID))
			}
		}
		for _, id := range overlay.Highlight {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && id != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s highlight;\n", safeID))
			}
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
