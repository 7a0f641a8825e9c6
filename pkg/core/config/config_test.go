package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, ok := cfg.Policy(TaskDCF)
	require.True(t, ok)
	assert.True(t, p.Predict)
	assert.Equal(t, []string{"historical_cash_flows"}, p.Required)

	p, ok = cfg.Policy(TaskAbnormalFinding)
	require.True(t, ok)
	assert.False(t, p.Predict)

	_, ok = cfg.Policy("Sentiment")
	assert.False(t, ok)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9090
monte_carlo:
  paths: 200
tasks:
  DCF:
    required: [historical_cash_flows, shares_outstanding]
models:
  randomforest:
    intercept: 1
    weights: {roe: 2}
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset fields keep defaults")
	assert.Equal(t, 200, cfg.MonteCarlo.Paths)
	assert.Equal(t, 252, cfg.MonteCarlo.Steps)
	assert.Equal(t, []string{"historical_cash_flows", "shares_outstanding"}, cfg.Tasks[TaskDCF].Required)
	assert.False(t, cfg.Tasks[TaskDCF].Predict, "a task named in the file replaces its default policy")
	assert.Contains(t, cfg.Tasks, TaskRiskMitigation)
	assert.Equal(t, 2.0, cfg.Models["randomforest"].Weights["roe"])
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(PathEnv, writeFile(t, "logging:\n  level: debug\n"))
	t.Setenv("ENGINE_SERVER_PORT", "7070")
	t.Setenv("ENGINE_MONTE_CARLO_SEED", "42")
	t.Setenv("ENGINE_ANALYSIS_DEFAULT_MODEL", "xgboost")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, uint64(42), cfg.MonteCarlo.Seed)
	assert.Equal(t, "xgboost", cfg.Analysis.DefaultModel)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFailures(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		t.Setenv(PathEnv, filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid simulation size", func(t *testing.T) {
		t.Setenv(PathEnv, writeFile(t, "monte_carlo:\n  paths: 0\n"))
		_, err := Load()
		assert.ErrorContains(t, err, "validation")
	})

	t.Run("unknown log format", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Format = "xml"
		assert.Error(t, cfg.Validate())
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "server: [\n"))
		assert.Error(t, err)
	})
}

func TestLoadFromMissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
	assert.Len(t, cfg.Tasks, 5)
}
