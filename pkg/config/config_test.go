package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
system:
  max_memory_gb: 16
  thermal_threshold: 0.8
models:
  profiles:
    qwen2.5-coder:7b:
      source: local
      context_length: 8192
      memory_estimate_gb: 6
      min_memory_gb: 5
      recommended_memory_gb: 7
      reasoning: 0.6
      coding: 0.8
      creativity: 0.4
      multilingual: 0.3
      thermal_sensitivity: 0.3
roles:
  planner:
    preferences: ["qwen2.5-coder:7b"]
`

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orchestra.yaml"), []byte(content), 0o600))
}

func TestInitialize_LoadsMergesAndValidates(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, sampleYAML)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 16.0, cfg.MaxMemoryGB)
	assert.Contains(t, cfg.Profiles, "qwen2.5-coder:7b")
	assert.Equal(t, []string{"qwen2.5-coder:7b"}, cfg.RolePreferences["planner"])
	// built-in roles survive even though only "planner" was customized
	assert.Contains(t, cfg.Requirements, "critic")
	assert.Contains(t, cfg.Requirements, "executor")
}

func TestInitialize_MissingFileIsConfigError(t *testing.T) {
	dir := t.TempDir()
	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestInitialize_EnvExpansionAppliesBeforeParse(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORCHESTRA_MAX_MEM", "24")
	writeConfig(t, dir, "system:\n  max_memory_gb: ${ORCHESTRA_MAX_MEM}\nroles:\n  planner: {}\n")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 24.0, cfg.MaxMemoryGB)
}

func TestInitialize_UnknownRolePreferenceFailsValidation(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "roles:\n  planner:\n    preferences: [\"ghost-model\"]\n")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestInitialize_DefaultsFillUnsetSystemValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "roles:\n  planner: {}\n")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 32.0, cfg.MaxMemoryGB)
	assert.Equal(t, "json", cfg.CacheBackend)
	assert.Equal(t, 3, cfg.OrchestratorMaxCriticIterations)
}
