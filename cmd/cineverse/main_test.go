package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_CONNECTION", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "cineverse.db"))
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated:")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to migrate")

	out, err = run(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "MIGRATION")
	assert.Contains(t, out, "true")

	out, err = run(t, "routes", "--prefix", "/api/v1/auth")
	require.NoError(t, err)
	assert.Contains(t, out, "/api/v1/auth/login")
	assert.NotContains(t, out, "/api/v1/movies")

	_, err = run(t, "gc")
	require.NoError(t, err)

	_, err = run(t, "admin", "nobody@example.com")
	require.Error(t, err)

	_, err = run(t, "admin")
	require.Error(t, err)
}

func TestConfigErrors(t *testing.T) {
	setupEnv(t)
	t.Setenv("APP_KEY", "short")

	_, err := run(t, "routes")
	require.Error(t, err)
}
