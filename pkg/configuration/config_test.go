package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ConfigVersion, cfg.Version)
	assert.Equal(t, DefaultPasteMaxChars, cfg.PasteMaxChars)
	assert.Equal(t, DefaultPasteMaxLines, cfg.PasteMaxLines)
	assert.Equal(t, "> ", cfg.Prompt)
	assert.Equal(t, 1000, cfg.HistorySize)
	assert.NotNil(t, cfg.Preferences)
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPasteMaxChars, cfg.PasteMaxChars)
	assert.Empty(t, cfg.LastUsedModel)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := NewConfig()
	cfg.LastUsedModel = "gpt-4o"
	cfg.PasteMaxChars = 900
	cfg.Prompt = ">> "
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", loaded.LastUsedModel)
	assert.Equal(t, 900, loaded.PasteMaxChars)
	assert.Equal(t, ">> ", loaded.Prompt)
}

func TestLoadFillsZeroedFields(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configPath := filepath.Join(home, ConfigDirName, ConfigFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0700))
	require.NoError(t, os.WriteFile(configPath, []byte(`{"last_used_model":"claude-sonnet-4"}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4", cfg.LastUsedModel)
	assert.Equal(t, DefaultPasteMaxChars, cfg.PasteMaxChars, "partial files pick up defaults")
	assert.Equal(t, DefaultPasteMaxLines, cfg.PasteMaxLines)
	assert.Equal(t, "> ", cfg.Prompt)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configPath := filepath.Join(home, ConfigDirName, ConfigFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0700))
	require.NoError(t, os.WriteFile(configPath, []byte("not json"), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestResolvePaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := NewConfig()

	historyPath, err := cfg.ResolveHistoryPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ConfigDirName, HistoryFile), historyPath)

	modelsPath, err := cfg.ResolveModelsPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ConfigDirName, ModelsFileName), modelsPath)

	cfg.HistoryPath = "/tmp/custom-history"
	cfg.ModelsFile = "/tmp/custom-models.json"
	historyPath, err = cfg.ResolveHistoryPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-history", historyPath)
	modelsPath, err = cfg.ResolveModelsPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-models.json", modelsPath)
}
