package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// It falls back to the raw markdown when no renderer can be built.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IdentityMarkdown describes an identity as a markdown card.
func IdentityMarkdown(id *domain.Identity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", id.Username)

	b.WriteString("| | |\n|---|---|\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", k, escape(v))
		}
	}
	row("ID", fmt.Sprint(id.ID))
	row("Email", id.Email)
	row("Role", id.Role.String())
	row("Home", id.Role.HomePath())

	if h := id.Hotel; h != nil {
		fmt.Fprintf(&b, "\n## Hotel\n\n%s, %s (%s)\n", escape(h.Name), escape(h.City), escape(h.Address))
	}
	if c := id.Client; c != nil {
		name := strings.TrimSpace(strings.Join([]string{c.Surname, c.Name, c.FathersName}, " "))
		fmt.Fprintf(&b, "\n## Guest\n\n%s\n", escape(name))
		if c.MobileNumber != "" {
			fmt.Fprintf(&b, "\nPhone: %s\n", escape(c.MobileNumber))
		}
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
