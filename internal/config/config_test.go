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
	path := filepath.Join(t.TempDir(), "ghosthunt.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Simulation.FearMax)
	assert.Equal(t, 15, cfg.Simulation.BoredomMax)
	assert.Equal(t, 6, cfg.Simulation.EvidenceOdds)
	assert.Zero(t, cfg.Simulation.StepDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Storage.Path)
}

func TestLoadFileOverridesOnlyDefinedKeys(t *testing.T) {
	path := writeFile(t, `
[simulation]
boredom_max = 20
step_delay = "25ms"
ghost_type = " Banshee "

[storage]
path = "runs.db"
`)
	cfg, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Simulation.FearMax, "undefined keys keep their default")
	assert.Equal(t, 20, cfg.Simulation.BoredomMax)
	assert.Equal(t, 25*time.Millisecond, cfg.Simulation.StepDelay)
	assert.Equal(t, "Banshee", cfg.Simulation.GhostType)
	assert.Equal(t, "runs.db", cfg.Storage.Path)
}

func TestEnvBeatsFile(t *testing.T) {
	path := writeFile(t, "[simulation]\nfear_max = 9\n")
	t.Setenv("GHOSTHUNT_SIM_FEAR_MAX", "4")
	t.Setenv("GHOSTHUNT_LOG_LEVEL", "debug")
	t.Setenv("GHOSTHUNT_SIM_STEP_JITTER", "3ms")

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Simulation.FearMax)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3*time.Millisecond, cfg.Simulation.StepJitter)
}

func TestLoadKeepsPresetBase(t *testing.T) {
	cfg, err := Load(Spectator(), "")
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, cfg.Simulation.StepDelay)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(nil, writeFile(t, "[simulation]\nstep_delay = \"soon\"\n"))
	assert.ErrorContains(t, err, "step_delay")

	_, err = Load(nil, writeFile(t, "[simulation]\nevidence_odds = 0\n"))
	assert.ErrorContains(t, err, "evidence_odds")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Simulation.FearMax = 0
	cfg.Simulation.StepDelay = -time.Second
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "fear_max")
	assert.ErrorContains(t, err, "negative")
	assert.ErrorContains(t, err, "log.format")

	assert.NoError(t, Stress().Validate())
}
