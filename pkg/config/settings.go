package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dikkadev/launchhub/pkg/logging"
)

var log = logging.GetLogger("config")

// Settings holds the user preferences stored in settings.json
type Settings struct {
	// Enables startup and periodic update checks
	AutoUpdate           bool   `json:"autoUpdate"`
	LaunchOnStartup      bool   `json:"launchOnStartup"`
	Theme                string `json:"theme"`
	CheckUpdatesOnLaunch bool   `json:"checkUpdatesOnLaunch"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	// Installation root, relative to the root directory unless absolute
	AppsInstallPath string     `json:"appsInstallPath"`
	LastUpdateCheck *time.Time `json:"lastUpdateCheck"`
}

// DefaultSettings returns the settings used when no settings file exists
func DefaultSettings() *Settings {
	return &Settings{
		AutoUpdate:           true,
		LaunchOnStartup:      false,
		Theme:                "dark",
		CheckUpdatesOnLaunch: true,
		NotificationsEnabled: true,
		AppsInstallPath:      "./apps",
		LastUpdateCheck:      nil,
	}
}

// LoadSettings reads the settings file. A missing or unreadable file falls
// back to the defaults; keys absent from the file keep their default value.
func LoadSettings(path string) *Settings {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("Failed to read settings, using defaults")
		}
		return settings
	}

	if err := json.Unmarshal(data, settings); err != nil {
		log.WithError(err).Warn("Failed to parse settings, using defaults")
		return DefaultSettings()
	}

	log.Debug("Settings loaded")
	return settings
}

// SaveSettings writes the settings file, creating its directory if needed
func SaveSettings(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	log.Debug("Settings saved")
	return nil
}
