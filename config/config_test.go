package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kastelo.dev/yield"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("YIELD_DB_DSN", "")
	t.Setenv("YIELD_LOG_MODE", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	t.Setenv("YIELD_DB_DSN", "")
	t.Setenv("YIELD_LOG_MODE", "")

	path := writeFile(t, "yield.toml", `
[input]
csv_comma = ";"
csv_encoding = "windows-1252"

[database]
driver = "postgres"
dsn = "postgres://localhost/yield"

[server]
addr = ":9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/yield", cfg.Database.DSN)
	assert.Equal(t, "monthly_yield", cfg.Database.Table)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, int64(32), cfg.Server.MaxUpload)
	assert.Equal(t, yield.DefaultBoilerplate, cfg.Input.Boilerplate)
	assert.Equal(t, yield.CSVOptions{Comma: ';', Encoding: "windows-1252"}, cfg.CSV())
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("YIELD_DB_DSN", "")
	t.Setenv("YIELD_LOG_MODE", "")

	path := writeFile(t, "yield.yaml", `
input:
  boilerplate:
    - Tagesbericht
output:
  dir: /tmp/out
  prefix: sawmill_
log:
  mode: development
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Tagesbericht"}, cfg.Input.Boilerplate)
	assert.Equal(t, "development", cfg.Log.Mode)
	assert.Equal(t, "Monatsanalyse", cfg.Output.Sheet)
	assert.Equal(t, filepath.Join("/tmp/out", "sawmill_monatsanalyse_unknown.xlsx"), cfg.OutputPath("monatsanalyse_unknown.xlsx"))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("YIELD_DB_DSN", "file:override.db")
	t.Setenv("YIELD_LOG_MODE", "development")

	path := writeFile(t, "yield.toml", `
[database]
dsn = "file:config.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file:override.db", cfg.Database.DSN)
	assert.Equal(t, "development", cfg.Log.Mode)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("YIELD_DB_DSN", "")
	t.Setenv("YIELD_LOG_MODE", "")

	cases := []struct {
		name    string
		file    string
		content string
	}{
		{"format", "yield.ini", "[input]\n"},
		{"syntax", "yield.toml", "[input\n"},
		{"comma", "yield.toml", "[input]\ncsv_comma = \";;\"\n"},
		{"mode", "yield.yaml", "log:\n  mode: verbose\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.file, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
