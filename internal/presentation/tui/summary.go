package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/internal/resolve"
	"github.com/aretw0/espalier/pkg/domain"
)

// Summary renders a resolution outcome as Markdown.
func Summary(profileID string, out *resolve.Outcome) string {
	var sb strings.Builder
	cat := out.Catalog

	fmt.Fprintf(&sb, "# %s\n\n", cat.Metadata.Title)
	fmt.Fprintf(&sb, "Resolved from profile `%s`", profileID)
	if cat.Metadata.LastModified != nil {
		fmt.Fprintf(&sb, " at %s", cat.Metadata.LastModified.Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString(".\n\n")

	sb.WriteString("| Imports | Controls | Kept | Promoted controls | Promoted params |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %d |\n\n",
		out.Stats.Imports,
		len(cat.AllControls()),
		out.Stats.KeptControls,
		out.Stats.PromotedControls,
		out.Stats.PromotedParams,
	)

	sb.WriteString("## Controls\n\n")
	writeControls(&sb, cat.Controls, 0)
	for _, g := range cat.Groups {
		writeGroup(&sb, g, 0)
	}

	if len(out.Required) > 0 {
		sb.WriteString("\n## Required parameters\n\n")
		for _, id := range out.Required {
			p := cat.FindParam(id)
			switch {
			case p == nil:
				fmt.Fprintf(&sb, "- `%s` (missing)\n", id)
			case len(p.Values) > 0:
				fmt.Fprintf(&sb, "- `%s` = %s\n", id, strings.Join(p.Values, ", "))
			default:
				fmt.Fprintf(&sb, "- `%s` (unset)\n", id)
			}
		}
	}
	return sb.String()
}

func writeGroup(sb *strings.Builder, g *domain.Group, depth int) {
	fmt.Fprintf(sb, "%s- **%s**", indent(depth), g.Title)
	if g.ID != "" {
		fmt.Fprintf(sb, " (`%s`)", g.ID)
	}
	sb.WriteString("\n")
	writeControls(sb, g.Controls, depth+1)
	for _, sub := range g.Groups {
		writeGroup(sb, sub, depth+1)
	}
}

func writeControls(sb *strings.Builder, ctrls []*domain.Control, depth int) {
	for _, c := range ctrls {
		fmt.Fprintf(sb, "%s- `%s` %s\n", indent(depth), c.ID, c.Title)
		writeControls(sb, c.Controls, depth+1)
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
