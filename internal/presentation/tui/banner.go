package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the orocos banner followed by the version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{`   ___  _ __ ___   ___ ___  ___ `, "#38bdf8"},
		{`  / _ \| '__/ _ \ / __/ _ \/ __|`, "#22d3ee"},
		{` | (_) | | | (_) | (_| (_) \__ \`, "#2dd4bf"},
		{`  \___/|_|  \___/ \___\___/|___/`, "#34d399"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  control plane "+version).Faint())
	fmt.Fprintln(w)
}
