package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Orchestrator.MaxIterations)
	assert.Equal(t, 20, cfg.Orchestrator.HistoryLimit)
	assert.Equal(t, 5*time.Minute, cfg.Orchestrator.TurnTimeout.Duration())
	assert.Equal(t, "openai", cfg.Model.Provider)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8081
orchestrator:
  max_iterations: 5
  turn_timeout: 30s
model:
  name: gpt-4o
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Orchestrator.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.Orchestrator.TurnTimeout.Duration())
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	// Untouched sections keep defaults.
	assert.Equal(t, 20, cfg.Orchestrator.HistoryLimit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0600))

	t.Setenv("SERVER_PORT", "8082")
	t.Setenv("MODEL_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Model.APIKey.Value())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "empty workspace root",
			mutate:  func(c *Config) { c.Workspace.Root = "" },
			wantErr: "workspace.root",
		},
		{
			name:    "zero iterations",
			mutate:  func(c *Config) { c.Orchestrator.MaxIterations = 0 },
			wantErr: "max_iterations",
		},
		{
			name:    "zero history limit",
			mutate:  func(c *Config) { c.Orchestrator.HistoryLimit = 0 },
			wantErr: "history_limit",
		},
		{
			name:    "missing model name",
			mutate:  func(c *Config) { c.Model.Name = "" },
			wantErr: "model.name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.Error(t, d.UnmarshalText([]byte("-5s")))
	require.Error(t, d.UnmarshalText([]byte("bogus")))
}
