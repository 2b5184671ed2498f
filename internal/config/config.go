// Package config implements profile management for the serial console
// client. Profiles live in a YAML file under the user's configuration
// directory; environment variables and command-line flags override them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/logging"
)

// DefaultProfileName is created on first run and used when none is named
const DefaultProfileName = "default"

// Config represents the complete configuration file structure
type Config struct {
	Profiles map[string]interfaces.Profile `yaml:"profiles"`
	Themes   map[string]interfaces.Theme   `yaml:"themes"`
}

// Manager implements the ConfigManager interface
type Manager struct {
	configPath   string
	cachedConfig *Config
	logger       *logging.Logger
}

// NewManager creates a configuration manager using the OS-appropriate path
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to determine configuration path: %w", err)
	}
	return NewManagerWithPath(configPath)
}

// NewManagerWithPath creates a configuration manager backed by configPath
func NewManagerWithPath(configPath string) (*Manager, error) {
	manager := &Manager{
		configPath: configPath,
		logger:     logging.GetConfigLogger(),
	}

	if err := manager.ensureConfigDirectory(); err != nil {
		return nil, fmt.Errorf("failed to create configuration directory: %w", err)
	}
	return manager, nil
}

// getConfigPath determines the OS-appropriate configuration file path
func getConfigPath() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "serialconsole", "profiles.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "serialconsole", "profiles.yaml"), nil
}

// ensureConfigDirectory creates the configuration directory, owner-only
func (m *Manager) ensureConfigDirectory() error {
	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

// loadConfig reads and parses the configuration file, creating defaults if necessary
func (m *Manager) loadConfig() (*Config, error) {
	if m.cachedConfig != nil {
		return m.cachedConfig, nil
	}

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		config := createDefaultConfig()
		if err := m.saveConfig(config); err != nil {
			return nil, fmt.Errorf("failed to create default configuration: %w", err)
		}
		m.logger.Info("Created default configuration", "path", m.configPath)
		m.cachedConfig = config
		return config, nil
	}

	if err := CheckFilePermissions(m.configPath); err != nil {
		m.logger.Warn("Configuration file permissions", "path", m.configPath, "error", err.Error())
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewConfigurationError("config").
			WithLogger(m.logger).
			WithOperation("parse").
			WithMessage("failed to parse configuration file").
			WithContext("path", m.configPath).
			WithCause(err).
			Build()
	}
	if config.Profiles == nil {
		config.Profiles = make(map[string]interfaces.Profile)
	}
	if config.Themes == nil {
		config.Themes = defaultThemes()
	}

	m.cachedConfig = &config
	return &config, nil
}

// saveConfig writes the configuration to disk, owner read/write only
func (m *Manager) saveConfig(config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}

func defaultThemes() map[string]interfaces.Theme {
	return map[string]interfaces.Theme{
		"github": {
			Name:    "github",
			Success: "#28a745",
			Error:   "#dc3545",
			Warning: "#ffc107",
			Info:    "#17a2b8",
		},
		"monokai": {
			Name:    "monokai",
			Success: "#a6e22e",
			Error:   "#f92672",
			Warning: "#fd971f",
			Info:    "#66d9ef",
		},
		// status colors of the firmware's web console
		"firmware": {
			Name:    "firmware",
			Success: "#00ff00",
			Error:   "#ff0000",
			Warning: "#ffff00",
			Info:    "#0099ff",
		},
	}
}

// createDefaultConfig generates the configuration written on first run
func createDefaultConfig() *Config {
	return &Config{
		Profiles: map[string]interfaces.Profile{
			DefaultProfileName: DefaultProfile(),
		},
		Themes: defaultThemes(),
	}
}

// LoadProfile retrieves a profile by name, with defaults applied
func (m *Manager) LoadProfile(name string) (*interfaces.Profile, error) {
	m.logger.LogConfigLoad(m.configPath, name)

	config, err := m.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	profile, exists := config.Profiles[name]
	if !exists {
		return nil, fmt.Errorf("%w: profile '%s' not found", errors.ErrConfiguration, name)
	}
	profile.Name = name
	ApplyDefaults(&profile)

	if err := m.ValidateProfile(&profile); err != nil {
		return nil, fmt.Errorf("profile '%s' is invalid: %w", name, err)
	}
	return &profile, nil
}

// SaveProfile persists a profile to the configuration file
func (m *Manager) SaveProfile(profile *interfaces.Profile) error {
	if err := m.ValidateProfile(profile); err != nil {
		return fmt.Errorf("cannot save invalid profile: %w", err)
	}

	config, err := m.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if config.Profiles == nil {
		config.Profiles = make(map[string]interfaces.Profile)
	}
	config.Profiles[profile.Name] = *profile

	if err := m.saveConfig(config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	m.cachedConfig = config
	return nil
}

// ListProfiles returns all available profile names, sorted
func (m *Manager) ListProfiles() ([]string, error) {
	config, err := m.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	profileNames := make([]string, 0, len(config.Profiles))
	for name := range config.Profiles {
		profileNames = append(profileNames, name)
	}
	sort.Strings(profileNames)
	return profileNames, nil
}

// LoadTheme retrieves theme configuration by name
func (m *Manager) LoadTheme(name string) (*interfaces.Theme, error) {
	config, err := m.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	theme, exists := config.Themes[name]
	if !exists {
		return nil, fmt.Errorf("%w: theme '%s' not found", errors.ErrConfiguration, name)
	}
	theme.Name = name
	return &theme, nil
}

// DeleteProfile removes a profile from the configuration
func (m *Manager) DeleteProfile(name string) error {
	config, err := m.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, exists := config.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	if name == DefaultProfileName {
		return fmt.Errorf("cannot delete the default profile")
	}

	delete(config.Profiles, name)
	if err := m.saveConfig(config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	m.cachedConfig = config
	return nil
}

// ValidateProfile reports every problem with profile at once
func (m *Manager) ValidateProfile(profile *interfaces.Profile) error {
	return ValidateProfile(profile)
}

// GetConfigPath returns the path to the configuration file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// InvalidateCache clears the cached configuration, forcing a reload on next access
func (m *Manager) InvalidateCache() {
	m.cachedConfig = nil
}

// Marshal renders profile as YAML, as stored on disk
func Marshal(profile *interfaces.Profile) (string, error) {
	data, err := yaml.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	return strings.TrimRight(string(data), "\n") + "\n", nil
}

var _ interfaces.ConfigManager = (*Manager)(nil)
