package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lit-review/config"
	"lit-review/models"
)

func TestSettingsRoundtrip(t *testing.T) {
	db := newTestDB(t)

	_, found, err := GetSetting(db, "nope")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetSetting(db, "ui_theme", "dark"))
	value, found, err := GetSetting(db, "ui_theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", value)

	// Upsert replaces.
	require.NoError(t, SetSetting(db, "ui_theme", "light"))
	value, _, err = GetSetting(db, "ui_theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)
}

func TestLoadLLMOptionsOverlaysDefaults(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.Config{
		LLMHost:           "http://env-host:11434",
		LLMModel:          "env-model",
		LLMThinkingMode:   false,
		LLMAutoSuggest:    false,
		LLMTimeoutSeconds: 42,
	}

	// SeedDefaults already stored the default settings; they win over the
	// environment for host/model/booleans, the timeout stays env-only.
	opts, err := LoadLLMOptions(db, cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", opts.Host)
	assert.Equal(t, "qwen3:8b", opts.Model)
	assert.True(t, opts.ThinkingMode)
	assert.False(t, opts.AutoSuggest)
	assert.Equal(t, 42*time.Second, opts.Timeout)

	// Saved options come back on the next load.
	opts.Model = "qwen3:32b"
	opts.AutoSuggest = true
	require.NoError(t, SaveLLMOptions(db, opts))

	reloaded, err := LoadLLMOptions(db, cfg)
	require.NoError(t, err)
	assert.Equal(t, "qwen3:32b", reloaded.Model)
	assert.True(t, reloaded.AutoSuggest)

	value, _, err := GetSetting(db, models.SettingLLMModel)
	require.NoError(t, err)
	assert.Equal(t, "qwen3:32b", value)
}
