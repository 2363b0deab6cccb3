package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Fill(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("bob\r\nsecret"), &out)

	user, pass, preset := "", "", "kept"
	require.NoError(t, p.Fill(&user, "Username", false))
	require.NoError(t, p.Fill(&pass, "Password", true))
	require.NoError(t, p.Fill(&preset, "Email", false))

	assert.Equal(t, "bob", user)
	assert.Equal(t, "secret", pass, "last line without newline is accepted")
	assert.Equal(t, "kept", preset)
	assert.Equal(t, "Username: Password: ", out.String())
}

func TestPrompter_EmptyInput(t *testing.T) {
	p := NewPrompter(strings.NewReader("\n"), &bytes.Buffer{})

	var v string
	assert.EqualError(t, p.Fill(&v, "Username", false), "username is required")

	assert.Error(t, p.Fill(&v, "Password", true), "EOF")
}

func TestPrompter_SanitizesVisibleInput(t *testing.T) {
	p := NewPrompter(strings.NewReader("  bo\x1b[31mb \n"), &bytes.Buffer{})

	var user string
	require.NoError(t, p.Fill(&user, "Username", false))
	assert.Equal(t, "bo[31mb", user)

	pass := "p\x07ss"
	require.NoError(t, p.Fill(&pass, "Password", true))
	assert.Equal(t, "p\x07ss", pass, "secrets are never rewritten")
}

func TestPrompter_RejectsOversizedInput(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "8")
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})

	v := strings.Repeat("x", 9)
	assert.ErrorIs(t, p.Fill(&v, "Email", false), ErrInputTooLarge)

	secret := strings.Repeat("x", 9)
	assert.ErrorIs(t, p.Fill(&secret, "Password", true), ErrInputTooLarge)
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		err   error
	}{
		{"clean", "alice@example.com", "alice@example.com", nil},
		{"ansi escape", "al\x1b[0mice", "al[0mice", nil},
		{"null byte", "ali\x00ce", "alice", nil},
		{"invalid utf8", "al\xffice", "", ErrInvalidUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
