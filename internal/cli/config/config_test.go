package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "partnerlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, "target:\n  type: duckdb\n")
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultEnv, cfg.Environment)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "duckdb", cfg.Target.Type)
}

func TestLoadWithoutConfigFile(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	// With nothing configured, the target falls back to in-memory duckdb.
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Empty(t, cfg.Target.Path)
}

func TestLoadConfigFile(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `
state_path: /tmp/lens/state.db
environment: staging
output: json
target:
  type: postgres
  host: db.internal
  port: 5433
  database: warehouse
  user: analyst
  password: hunter2
  options:
    sslmode: require
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/lens/state.db", cfg.StatePath)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "json", cfg.OutputFormat)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, 5433, cfg.Target.Port)
	assert.Equal(t, "warehouse", cfg.Target.Database)
	assert.Equal(t, "require", cfg.Target.Options["sslmode"])
}

func TestLoadEnvVarOverride(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `
target:
  type: postgres
  host: db.internal
  database: warehouse
`)

	t.Setenv("PARTNERLENS_TARGET_HOST", "replica.internal")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "replica.internal", cfg.Target.Host)
}

func TestLoadFlagOverride(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `
output: text
target:
  type: duckdb
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.String("state", "", "")
	require.NoError(t, flags.Parse([]string{"--output", "markdown", "--state", "/tmp/other.db"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.Equal(t, "/tmp/other.db", cfg.StatePath)
}

func TestLoadCredentialExpansion(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `
target:
  type: postgres
  host: db.internal
  database: warehouse
  user: ${LENS_DB_USER}
  password: ${LENS_DB_PASSWORD}
`)

	t.Setenv("LENS_DB_USER", "svc_analytics")
	t.Setenv("LENS_DB_PASSWORD", "s3cret")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "svc_analytics", cfg.Target.User)
	assert.Equal(t, "s3cret", cfg.Target.Password)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `
environment: dev
target:
  type: postgres
  host: localhost
  database: warehouse
  user: dev
environments:
  prod:
    state_path: /var/lib/lens/state.db
    target:
      host: prod-db.internal
      password: prodpass
`)

	cfg, err := LoadWithEnvironment(path, "prod", nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "/var/lib/lens/state.db", cfg.StatePath)
	// Overrides merge over the base target
	assert.Equal(t, "prod-db.internal", cfg.Target.Host)
	assert.Equal(t, "prodpass", cfg.Target.Password)
	assert.Equal(t, "warehouse", cfg.Target.Database)
	assert.Equal(t, "dev", cfg.Target.User)
}

func TestLoadRejectsBadTarget(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `
target:
  type: oracle
`)

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported target type")
}

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  *TargetConfig
		wantErr string
	}{
		{"nil target", nil, "not configured"},
		{"unknown type", &TargetConfig{Type: "mysql"}, "unsupported target type"},
		{"postgres without database", &TargetConfig{Type: "postgres"}, "requires a database"},
		{"postgres bad port", &TargetConfig{Type: "postgres", Database: "x", Port: 70000}, "out of range"},
		{"postgres ok", &TargetConfig{Type: "postgres", Database: "warehouse"}, ""},
		{"duckdb in-memory ok", &TargetConfig{Type: "duckdb"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTarget(tt.target)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMergeTargetConfig(t *testing.T) {
	base := &TargetConfig{
		Type:     "postgres",
		Host:     "localhost",
		Port:     5432,
		Database: "warehouse",
		User:     "dev",
		Options:  map[string]string{"sslmode": "disable"},
	}
	override := &TargetConfig{
		Host:    "prod-db.internal",
		Options: map[string]string{"sslmode": "require"},
	}

	merged := MergeTargetConfig(base, override)
	assert.Equal(t, "postgres", merged.Type)
	assert.Equal(t, "prod-db.internal", merged.Host)
	assert.Equal(t, 5432, merged.Port)
	assert.Equal(t, "warehouse", merged.Database)
	assert.Equal(t, "require", merged.Options["sslmode"])

	assert.Same(t, override, MergeTargetConfig(nil, override))
	assert.Same(t, base, MergeTargetConfig(base, nil))
}
