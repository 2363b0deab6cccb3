package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestFormatStatus_PlainProfile(t *testing.T) {
	tests := []struct {
		status domain.Status
		want   string
	}{
		{domain.Status{Phase: domain.PhaseAnonymous}, "anonymous  not logged in"},
		{domain.Status{Authenticated: true, Phase: domain.PhaseCredentialOnly}, "credential_only  logged in, role unknown (run whoami or log in again)"},
		{domain.Status{Authenticated: true, Role: domain.RoleCleaner, Phase: domain.PhaseEstablished}, "established  role cleaner, home /cleaner"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatStatus(termenv.Ascii, tt.status))
	}
}

func TestIdentityMarkdown(t *testing.T) {
	md := IdentityMarkdown(&domain.Identity{
		ID:       3,
		Username: "bob",
		Role:     domain.RoleAdmin,
		Hotel:    &domain.Hotel{Name: "Grand | Spa", City: "Kazan", Address: "Main st"},
	})

	assert.Contains(t, md, "# bob")
	assert.Contains(t, md, "| Role | admin |")
	assert.Contains(t, md, "| Home | /admin/rooms |")
	assert.Contains(t, md, `Grand \| Spa, Kazan (Main st)`)
	assert.NotContains(t, md, "Email", "empty fields are omitted")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer()
	out, err := render("# hello")
	assert.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0")
	assert.Contains(t, buf.String(), "v0.1.0")
}
