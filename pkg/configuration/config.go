package configuration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zetzet7298/letta-code/pkg/filesystem"
)

const (
	ConfigVersion  = "1.0"
	ConfigDirName  = ".letta"
	ConfigFileName = "config.json"
	ModelsFileName = "models.json"
	HistoryFile    = "prompt_history"
)

// Paste classification defaults. Pasted (or long manually inserted) text
// over either limit is stored in the paste registry and replaced with a
// placeholder token instead of being spliced into the line.
const (
	DefaultPasteMaxChars = 500
	DefaultPasteMaxLines = 5
)

// Config represents the console application configuration
type Config struct {
	Version string `json:"version"`

	// Paste placeholder thresholds. Zero means "use the default".
	PasteMaxChars int `json:"paste_max_chars,omitempty"`
	PasteMaxLines int `json:"paste_max_lines,omitempty"`

	// Prompt shown before the input line.
	Prompt string `json:"prompt,omitempty"`

	// Model selection
	LastUsedModel string `json:"last_used_model,omitempty"`
	ModelsFile    string `json:"models_file,omitempty"`

	// Prompt history
	HistorySize int    `json:"history_size,omitempty"`
	HistoryPath string `json:"history_path,omitempty"`

	// Preferences
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	return &Config{
		Version:       ConfigVersion,
		PasteMaxChars: DefaultPasteMaxChars,
		PasteMaxLines: DefaultPasteMaxLines,
		Prompt:        "> ",
		HistorySize:   1000,
		Preferences:   make(map[string]interface{}),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ConfigDirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// Load loads the configuration from file
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return new default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return NewConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

// applyDefaults fills zeroed fields so a partial config file still behaves.
func applyDefaults(config *Config) {
	def := NewConfig()
	if config.Version == "" {
		config.Version = def.Version
	}
	if config.PasteMaxChars == 0 {
		config.PasteMaxChars = def.PasteMaxChars
	}
	if config.PasteMaxLines == 0 {
		config.PasteMaxLines = def.PasteMaxLines
	}
	if config.Prompt == "" {
		config.Prompt = def.Prompt
	}
	if config.HistorySize == 0 {
		config.HistorySize = def.HistorySize
	}
	if config.Preferences == nil {
		config.Preferences = make(map[string]interface{})
	}
}

// Save saves the configuration to file
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return filesystem.WriteFileWithDir(configPath, data, 0600)
}

// ResolveHistoryPath returns the configured history file location,
// defaulting to the config directory.
func (c *Config) ResolveHistoryPath() (string, error) {
	if c.HistoryPath != "" {
		return c.HistoryPath, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, HistoryFile), nil
}

// ResolveModelsPath returns the configured model catalog location,
// defaulting to the config directory.
func (c *Config) ResolveModelsPath() (string, error) {
	if c.ModelsFile != "" {
		return c.ModelsFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ModelsFileName), nil
}
