package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the agent banner.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`   ___ ___  _ __   ___(_) ___ _ __ __ _  ___ `, "#818cf8"},
		{`  / __/ _ \| '_ \ / __| |/ _ \ '__/ _` + "`" + ` |/ _ \`, "#a78bfa"},
		{` | (_| (_) | | | | (__| |  __/ | | (_| |  __/`, "#c084fc"},
		{`  \___\___/|_| |_|\___|_|\___|_|  \__, |\___|`, "#e879f9"},
		{`                                  |___/      `, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", p.String("v"+version).Faint())
}
