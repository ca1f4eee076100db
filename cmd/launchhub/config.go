package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/dikkadev/launchhub/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		settings := config.LoadSettings(cfg.SettingsPath())

		fmt.Printf("%s %s\n", headerStyle.Render("Root:"), cfg.RootDir)
		fmt.Printf("%s %s\n", headerStyle.Render("Install root:"), cfg.InstallRoot(settings))
		fmt.Println()
		for _, op := range config.GetOperations() {
			value := op.Get(settings)
			if op.Name == "lastUpdateCheck" {
				value = fmt.Sprintf("%s (%s)", value, relativeTime(settings.LastUpdateCheck))
			}
			fmt.Printf("  %-22s %s\n", op.Name, value)
			fmt.Printf("  %-22s %s\n", "", dimStyle.Render(op.Description))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [name] [value]",
	Short: "Change a setting",
	Long: `Change a setting. Without arguments the setting and its value are
asked for interactively.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.SettingsPath()
		settings := config.LoadSettings(path)

		name, value, err := settingArgs(args, settings)
		if err != nil || name == "" {
			return err
		}

		op, ok := config.FindOperation(name)
		if !ok {
			return fmt.Errorf("unknown setting: %s", name)
		}
		if err := op.Set(settings, value); err != nil {
			return err
		}
		if err := config.SaveSettings(path, settings); err != nil {
			return err
		}

		fmt.Printf("%s = %s\n", op.Name, op.Get(settings))
		return nil
	},
}

var configIntegrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check that the configuration files exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		integrity := cfg.CheckIntegrity()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(integrity); err != nil {
			return err
		}
		if !integrity.RegistryExists {
			return fmt.Errorf("registry file missing: %s", cfg.RegistryPath())
		}
		return nil
	},
}

var configGitHubCmd = &cobra.Command{
	Use:   "github [token]",
	Short: "Store a GitHub token for release checks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		token := ""
		if len(args) == 1 {
			token = args[0]
		} else if err := survey.AskOne(&survey.Password{Message: "GitHub token (empty to clear):"}, &token); err != nil {
			return err
		}

		cfg.GitHubToken = token
		return cfg.Save()
	},
}

// settingArgs completes missing name and value arguments with prompts
func settingArgs(args []string, settings *config.Settings) (string, string, error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	} else {
		var options []string
		for _, op := range config.GetOperations() {
			options = append(options, op.Name)
		}
		prompt := &survey.Select{
			Message: "Setting:",
			Options: options,
			Description: func(value string, index int) string {
				op, _ := config.FindOperation(value)
				return op.Description
			},
		}
		if err := survey.AskOne(prompt, &name); err != nil {
			return "", "", err
		}
	}

	op, ok := config.FindOperation(name)
	if !ok {
		return "", "", fmt.Errorf("unknown setting: %s", name)
	}

	value := ""
	prompt := &survey.Input{Message: op.Name + ":", Default: op.Get(settings)}
	if err := survey.AskOne(prompt, &value); err != nil {
		return "", "", err
	}
	return name, value, nil
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configIntegrityCmd, configGitHubCmd)
	rootCmd.AddCommand(configCmd)
}
