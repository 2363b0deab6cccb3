package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStatus_FlagOverrides(t *testing.T) {
	out, err := run(t, "--store", "memory", "--base-url", "http://api.test", "--json", "status")
	require.NoError(t, err)

	assert.JSONEq(t, `{"authenticated":false,"role":"","phase":"anonymous"}`, out)
	assert.Equal(t, "memory", env.Config.Store.Backend)
	assert.Equal(t, "http://api.test", env.Config.BaseURL)
}

func TestInvalidBackendFlag(t *testing.T) {
	_, err := run(t, "--store", "sqlite", "status")
	assert.ErrorContains(t, err, `unknown store backend "sqlite"`)
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := run(t, "--config", "does-not-exist.yaml", "status")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "concierge version "))
}
