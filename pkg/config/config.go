package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RootEnv overrides the configured root directory when set
const RootEnv = "LAUNCHHUB_ROOT"

// Config represents the launcher configuration
type Config struct {
	// Directory where the launcher stores all its data
	RootDir string `json:"root_dir"`
	// GitHub token for API access (optional)
	GitHubToken string `json:"github_token,omitempty"`
	// Base URL of the GitHub API, for GitHub Enterprise (optional)
	GitHubAPIURL string `json:"github_api_url,omitempty"`
}

// Directories represents the launcher directory structure
type Directories struct {
	// Root directory for all launcher data
	Root string
	// Directory for the registry and settings files
	Config string
	// Default installation root, one subdirectory per application id
	Apps string
	// Directory for database files
	DB string
	// Directory for log files
	Logs string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		RootDir: filepath.Join(homeDir, "launchhub"),
	}
}

// GetDirectories returns the directory structure based on the root directory
func (c *Config) GetDirectories() *Directories {
	return &Directories{
		Root:   c.RootDir,
		Config: filepath.Join(c.RootDir, "config"),
		Apps:   filepath.Join(c.RootDir, "apps"),
		DB:     filepath.Join(c.RootDir, "db"),
		Logs:   filepath.Join(c.RootDir, "logs"),
	}
}

// RegistryPath returns the path of the application registry file
func (c *Config) RegistryPath() string {
	return filepath.Join(c.GetDirectories().Config, "apps-registry.json")
}

// SettingsPath returns the path of the user settings file
func (c *Config) SettingsPath() string {
	return filepath.Join(c.GetDirectories().Config, "settings.json")
}

// InstallRoot resolves the settings' appsInstallPath against the root directory
func (c *Config) InstallRoot(s *Settings) string {
	if s == nil || s.AppsInstallPath == "" {
		return c.GetDirectories().Apps
	}
	if filepath.IsAbs(s.AppsInstallPath) {
		return filepath.Clean(s.AppsInstallPath)
	}
	return filepath.Join(c.RootDir, s.AppsInstallPath)
}

// configFile returns the location of the config file
func configFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "launchhub", "config.json"), nil
}

// Load loads the configuration from the default location
func Load() (*Config, error) {
	path, err := configFile()
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if root := os.Getenv(RootEnv); root != "" {
		config.RootDir = root
	}

	return config, nil
}

// Save saves the configuration to the default location
func (c *Config) Save() error {
	path, err := configFile()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EnsureDirectories creates all necessary directories if they don't exist
func (c *Config) EnsureDirectories() error {
	dirs := c.GetDirectories()
	for _, dir := range []string{
		dirs.Root,
		dirs.Config,
		dirs.Apps,
		dirs.DB,
		dirs.Logs,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Integrity reports which configuration files are present
type Integrity struct {
	RegistryExists  bool `json:"appsRegistryExists"`
	SettingsExists  bool `json:"settingsExists"`
	ConfigDirExists bool `json:"configDirExists"`
}

// CheckIntegrity checks for the presence of the configuration files
func (c *Config) CheckIntegrity() Integrity {
	return Integrity{
		RegistryExists:  exists(c.RegistryPath()),
		SettingsExists:  exists(c.SettingsPath()),
		ConfigDirExists: exists(c.GetDirectories().Config),
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
