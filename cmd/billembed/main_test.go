package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nysgpt/billembed/internal/config"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"LEGISLATIVE_API_KEY", "NYS_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
	configPath, debugFlag = "", false
	embedSession, statusSession, searchSession = models.DefaultSessionYear, models.DefaultSessionYear, models.DefaultSessionYear
	statusFormat, embedFormat, searchFormat = "text", "text", "text"
	initConfigForce = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "storage:\n  driver: sqlite\n  database_path: ./bills.db\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "billembed version dev\n", out)
}

func TestInitConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "init-config", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 500, cfg.Chunking.MaxTokens)

	_, err = execute(t, "init-config", "--output", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init-config", "--output", path, "--force")
	require.NoError(t, err)
}

func TestStatusCommand_EmptyDatabase(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "--config", path, "status", "--session", "2026")
	require.NoError(t, err)
	assert.Contains(t, out, "Session:           2025")
	assert.Contains(t, out, "Bills:             0")
	assert.Contains(t, out, "Database size:")
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "bills.db"))
}

func TestStatusCommand_JSON(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "--config", path, "status", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"sessionYear": 2025`)
	assert.Contains(t, out, `"databaseBytes"`)
}

func TestCommandsWithoutKeys(t *testing.T) {
	path := writeTestConfig(t)

	tests := []struct {
		name    string
		args    []string
		missing string
	}{
		{"embed", []string{"embed", "S256"}, "OPENAI_API_KEY"},
		{"batch", []string{"batch"}, "LEGISLATIVE_API_KEY"},
		{"search", []string{"search", "rent", "stabilization"}, "OPENAI_API_KEY"},
		{"sync-bills", []string{"sync-bills"}, "LEGISLATIVE_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", path}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrConfig), "got %v", err)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestEmbedCommand_InvalidBillNumber(t *testing.T) {
	path := writeTestConfig(t)

	_, err := execute(t, "--config", path, "embed", "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidRequest))
}

func TestUnknownFormat(t *testing.T) {
	path := writeTestConfig(t)

	_, err := execute(t, "--config", path, "status", "--format", "xml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "xml"))
}

func TestResolveConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/billembed.yaml", resolveConfigPath("/etc/billembed.yaml"))

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.Equal(t, "", resolveConfigPath(""))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("debug: false\n"), 0600))
	got := resolveConfigPath("")
	assert.Equal(t, "config.yaml", filepath.Base(got))
}

func TestServerServices_NilComponents(t *testing.T) {
	c := &Components{MissingKeys: models.ErrConfig}
	s := serverServices(c)
	assert.Nil(t, s.Embedder)
	assert.Nil(t, s.Batch)
	assert.Nil(t, s.Status)
	assert.Nil(t, s.Search)
	assert.ErrorIs(t, s.Unavailable, models.ErrConfig)
}
