package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.SchemaModel)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.ComputerModel)
	assert.Equal(t, BrowserModePlaywright, cfg.Browser.Mode)
	assert.Equal(t, 1280, cfg.Browser.Width)
	assert.Equal(t, 720, cfg.Browser.Height)
	assert.Equal(t, 20, cfg.Agent.MaxTurns)
	assert.Equal(t, 10*time.Minute, cfg.Agent.Timeout)
	assert.Equal(t, "results", cfg.Results.Dir)
	assert.True(t, cfg.Results.Save)
}

func TestLoadHonorsEnvOverrides(t *testing.T) {
	t.Setenv("RESEARCH_BROWSER_MODE", "sim")
	t.Setenv("RESEARCH_AGENT_MAX_TURNS", "5")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BrowserModeSim, cfg.Browser.Mode)
	assert.Equal(t, 5, cfg.Agent.MaxTurns)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	t.Setenv("RESEARCH_BROWSER_MODE", "firefox")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser.mode")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/research.yaml")
	require.Error(t, err)
}
