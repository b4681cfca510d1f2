package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8190, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "gemini-3-flash-preview", config.Gemini.ExplainModel)
	assert.Equal(t, "gemini-3-pro-preview", config.Gemini.AssessModel)
	assert.Equal(t, 24000, config.Speech.SampleRate)
	assert.True(t, config.Maintenance.Enabled)
}

func TestLoadFromFilesOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audile.toml")
	content := `
[server]
port = 9000

[logging]
level = "debug"

[speech]
player_command = "ffplay -nodisp -autoexit"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "ffplay -nodisp -autoexit", config.Speech.PlayerCommand)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 24000, config.Speech.SampleRate)
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")
	require.NoError(t, os.WriteFile(base, []byte("[server]\nport = 9000\n"), 0644))
	require.NoError(t, os.WriteFile(local, []byte("[server]\nport = 9100\n"), 0644))

	config, err := LoadFromFiles(base, local)
	require.NoError(t, err)
	assert.Equal(t, 9100, config.Server.Port)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/audile.toml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUDILE_SERVER_PORT", "9999")
	t.Setenv("AUDILE_GEMINI_API_KEY", "test-key")
	t.Setenv("AUDILE_SPEECH_PLAYER", "paplay")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "test-key", config.Gemini.APIKey)
	assert.Equal(t, "paplay", config.Speech.PlayerCommand)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 7777, "0.0.0.0")
	assert.Equal(t, 7777, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	// Zero values leave the config untouched.
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 7777, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}
