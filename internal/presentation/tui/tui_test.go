package tui

import (
	"bytes"
	"testing"
	"time"

	"github.com/aretw0/espalier/internal/resolve"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	cat := dsl.Catalog("Low Baseline",
		dsl.Param("set_prm", "30 days"),
		dsl.Param("unset_prm"),
		dsl.Control("pm-1", "Program Plan"),
		dsl.Group("ac", "Access Control",
			dsl.Control("ac-1", "Policy", dsl.Control("ac-1.1", "Review")),
		),
	)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cat.Metadata.LastModified = &at

	got := Summary("low", &resolve.Outcome{
		Catalog:  cat,
		Required: []string{"gone_prm", "set_prm", "unset_prm"},
		Stats:    resolve.Stats{Imports: 2, KeptControls: 3, PromotedControls: 1},
	})

	for _, want := range []string{
		"# Low Baseline\n",
		"Resolved from profile `low` at 2026-01-02 03:04:05 UTC.",
		"| 2 | 3 | 3 | 1 | 0 |",
		"- `pm-1` Program Plan\n",
		"- **Access Control** (`ac`)\n",
		"  - `ac-1` Policy\n",
		"    - `ac-1.1` Review\n",
		"- `gone_prm` (missing)\n",
		"- `set_prm` = 30 days\n",
		"- `unset_prm` (unset)\n",
	} {
		assert.Contains(t, got, want)
	}
}

func TestSummary_NoRequired(t *testing.T) {
	got := Summary("p", &resolve.Outcome{Catalog: dsl.Catalog("Empty")})
	assert.NotContains(t, got, "Required parameters")
	assert.NotContains(t, got, " at ")
}

func TestNewRenderer_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	render := NewRenderer(&buf)

	out, err := render("# Title\n")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")

	assert.Contains(t, buf.String(), "OSCAL profile resolver v1.2.3")
	assert.NotContains(t, buf.String(), "\x1b[", "no escape codes outside a terminal")
}
