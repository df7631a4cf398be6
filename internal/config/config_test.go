package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, BackendLocal, cfg.LLM.Backend)
	assert.Equal(t, 85, cfg.Planner.MinConfidence)
	assert.Contains(t, cfg.Scanner.ExcludedDirs, ".git")
	assert.Contains(t, cfg.Scanner.ExcludedExtensions, "exe")
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.LLM.Backend = "carrier-pigeon"
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateRejectsOutOfRangeConfidence(t *testing.T) {
	cfg := Default()
	cfg.Planner.MinConfidence = 101
	require.Error(t, Validate(cfg))

	cfg.Planner.MinConfidence = -1
	require.Error(t, Validate(cfg))
}

func TestLoadWithoutFileAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), cfg.Scanner.MinSizeBytes)
}
