package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
name: lake
algorithm:
  name: Q-Learning
  parameters:
    learning_rate: 0.1
    discount: 0.99
    epsilon: 0.1
environment:
  name: FrozenLake
  seed: 42
episodes: 500
playback: true
chart_path: out/chart.html
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "lake", cfg.Name)
	assert.Equal(t, "Q-Learning", cfg.Algorithm.Name)
	assert.Equal(t, map[string]float64{"learning_rate": 0.1, "discount": 0.99, "epsilon": 0.1}, cfg.Algorithm.Parameters)
	assert.Equal(t, "FrozenLake", cfg.Environment.Name)
	require.NotNil(t, cfg.Environment.Seed)
	assert.Equal(t, int64(42), *cfg.Environment.Seed)
	assert.Equal(t, 500, cfg.Episodes)
	assert.True(t, cfg.Playback)
	assert.Equal(t, DefaultReportEvery, cfg.ReportEvery)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParseConfigDefaultsName(t *testing.T) {
	cfg, err := ParseConfig([]byte("algorithm: {name: SARSA}\nenvironment: {name: CliffWalking}\nepisodes: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, "SARSA-CliffWalking", cfg.Name)
	assert.Nil(t, cfg.Environment.Seed)
}

func TestParseConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"missing algorithm":   "environment: {name: FrozenLake}\nepisodes: 1\n",
		"missing environment": "algorithm: {name: SARSA}\nepisodes: 1\n",
		"zero episodes":       "algorithm: {name: SARSA}\nenvironment: {name: FrozenLake}\n",
		"negative report":     "algorithm: {name: SARSA}\nenvironment: {name: FrozenLake}\nepisodes: 1\nreport_every: -1\n",
		"malformed yaml":      "algorithm: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("RLPLAY_ADDR", ":8080")
	t.Setenv("RLPLAY_LOG_FORMAT", "json")
	t.Setenv("RLPLAY_LOG_LEVEL", "")
	t.Setenv("RLPLAY_HISTORY_DB", "")

	cfg := LoadServerConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.HistoryPath)
}
