package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the arbor banner using the color profile of w's terminal.
func PrintBanner(w io.Writer, p termenv.Profile) {
	lines := []struct{ text, color string }{
		{"                 _               ", "#4ade80"},
		{"   __ _ _ __ ___| |__   ___  _ __ ", "#34d399"},
		{"  / _` | '__/ _ \\ '_ \\ / _ \\| '__|", "#2dd4bf"},
		{" | (_| | | |  __/ |_) | (_) | |   ", "#22d3ee"},
		{"  \\__,_|_|  \\___|_.__/ \\___/|_|   ", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
