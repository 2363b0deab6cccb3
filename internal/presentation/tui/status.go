package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/muesli/termenv"
)

// phaseColors follow a traffic light: nothing, half-way, ready.
var phaseColors = map[domain.Phase]string{
	domain.PhaseAnonymous:      "#9ca3af",
	domain.PhaseCredentialOnly: "#f59e0b",
	domain.PhaseEstablished:    "#22c55e",
}

// FormatStatus renders a one-line session summary for the given color profile.
func FormatStatus(p termenv.Profile, st domain.Status) string {
	var b strings.Builder

	phase := p.String(string(st.Phase)).Foreground(p.Color(phaseColors[st.Phase])).Bold()
	b.WriteString(phase.String())

	switch st.Phase {
	case domain.PhaseAnonymous:
		b.WriteString("  not logged in")
	case domain.PhaseCredentialOnly:
		b.WriteString("  logged in, role unknown (run whoami or log in again)")
	default:
		fmt.Fprintf(&b, "  role %s, home %s", p.String(st.Role.String()).Bold(), st.Role.HomePath())
	}
	return b.String()
}
