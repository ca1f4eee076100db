package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SettingOperation describes one user-editable setting
type SettingOperation struct {
	Name        string
	Description string
	Get         func(*Settings) string
	Set         func(*Settings, string) error
}

// GetOperations returns the editable settings, sorted by name
func GetOperations() []SettingOperation {
	ops := []SettingOperation{
		boolSetting("autoUpdate", "Check for app updates at startup and periodically",
			func(s *Settings) *bool { return &s.AutoUpdate }),
		boolSetting("launchOnStartup", "Start the hub when the user logs in",
			func(s *Settings) *bool { return &s.LaunchOnStartup }),
		boolSetting("checkUpdatesOnLaunch", "Check for updates when the hub starts",
			func(s *Settings) *bool { return &s.CheckUpdatesOnLaunch }),
		boolSetting("notificationsEnabled", "Show update notifications",
			func(s *Settings) *bool { return &s.NotificationsEnabled }),
		{
			Name:        "theme",
			Description: "UI theme",
			Get:         func(s *Settings) string { return s.Theme },
			Set: func(s *Settings, v string) error {
				if v == "" {
					return fmt.Errorf("theme cannot be empty")
				}
				s.Theme = v
				return nil
			},
		},
		{
			Name:        "appsInstallPath",
			Description: "Installation root, relative to the root directory",
			Get:         func(s *Settings) string { return s.AppsInstallPath },
			Set: func(s *Settings, v string) error {
				if strings.TrimSpace(v) == "" {
					return fmt.Errorf("appsInstallPath cannot be empty")
				}
				s.AppsInstallPath = v
				return nil
			},
		},
		{
			Name:        "lastUpdateCheck",
			Description: "Time of the last update check (RFC 3339, or \"null\")",
			Get: func(s *Settings) string {
				if s.LastUpdateCheck == nil {
					return "null"
				}
				return s.LastUpdateCheck.Format(time.RFC3339)
			},
			Set: func(s *Settings, v string) error {
				if v == "" || v == "null" {
					s.LastUpdateCheck = nil
					return nil
				}
				t, err := time.Parse(time.RFC3339, v)
				if err != nil {
					return fmt.Errorf("invalid timestamp %q: %w", v, err)
				}
				s.LastUpdateCheck = &t
				return nil
			},
		},
	}

	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// FindOperation looks up a setting by name
func FindOperation(name string) (SettingOperation, bool) {
	for _, op := range GetOperations() {
		if op.Name == name {
			return op, true
		}
	}
	return SettingOperation{}, false
}

func boolSetting(name, description string, field func(*Settings) *bool) SettingOperation {
	return SettingOperation{
		Name:        name,
		Description: description,
		Get:         func(s *Settings) string { return strconv.FormatBool(*field(s)) },
		Set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s expects true or false, got %q", name, v)
			}
			*field(s) = b
			return nil
		},
	}
}
