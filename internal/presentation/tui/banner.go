package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the espalier banner and version to w.
// Colours degrade to plain text when w is not a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Leaf greens, darkening towards the trunk
	lines := []struct {
		text, color string
	}{
		{"                       _ _", "#bef264"},
		{"   ___  ___ _ __   __ _| (_) ___ _ __", "#a3e635"},
		{"  / _ \\/ __| '_ \\ / _` | | |/ _ \\ '__|", "#84cc16"},
		{" |  __/\\__ \\ |_) | (_| | | |  __/ |", "#65a30d"},
		{"  \\___||___/ .__/ \\__,_|_|_|\\___|_|", "#4d7c0f"},
		{"           |_|", "#3f6212"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  OSCAL profile resolver "+version).Faint())
	fmt.Fprintln(w)
}
