package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/dikkadev/launchhub/pkg/apperr"
	"github.com/dikkadev/launchhub/pkg/catalog"
	"github.com/dikkadev/launchhub/pkg/lifecycle"
	"github.com/dikkadev/launchhub/pkg/platform"
	"github.com/dikkadev/launchhub/pkg/selector"
)

var (
	listSearch   string
	listCategory string
	listFuzzy    bool

	launchWait bool
	assumeYes  bool
	openTarget bool

	historyLimit int
	historyPrune time.Duration
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog with live install state",
	Example: `  launchhub list
  launchhub list --category finance
  launchhub list --search ship --fuzzy`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			apps, err := a.service.ListApps(cmd.Context())
			if err != nil {
				return err
			}

			filter := catalog.NewFilter()
			filter.SetSearch(listSearch)
			filter.SetCategory(listCategory)
			filter.Fuzzy = listFuzzy
			printApps(filter.Apply(apps))
			return nil
		})
	},
}

var launchCmd = &cobra.Command{
	Use:   "launch [app-id]",
	Short: "Start an installed application",
	Long: `Start an installed application as a detached process.

Without an argument an interactive picker lists the installed applications.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			id, err := pickApp(ctx, a, args, true)
			if err != nil {
				return err
			}

			result, err := a.service.Launch(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%s (pid %d)\n", result.Message, result.PID)

			if !launchWait {
				return nil
			}
			status, err := result.Confirm(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Process %d: %s\n", result.PID, status)
			return nil
		})
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <app-id>",
	Short: "Check one application for updates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			m, err := a.registry.Get(args[0])
			if err != nil {
				return err
			}
			result, err := a.service.CheckUpdate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printUpdate(m.Name, result)
			return nil
		})
	},
}

var checkAllCmd = &cobra.Command{
	Use:   "check-all",
	Short: "Check every installed application for updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			updates, err := a.service.CheckAllUpdates(cmd.Context())
			if err != nil {
				return err
			}
			if len(updates) == 0 {
				fmt.Println(okStyle.Render("All installed apps are up to date"))
				return nil
			}
			for _, u := range updates {
				printUpdate(u.AppName, u.Result)
			}
			return nil
		})
	},
}

var installCmd = &cobra.Command{
	Use:   "install <app-id>",
	Short: "Open the latest release of an application in the browser",
	Long: `Resolve the latest release of an application and open its installer
download, or the release page when no installer asset exists.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			result, err := a.service.CheckUpdate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			target := result.Target()
			if target == "" {
				return apperr.New(apperr.NotFound, "no release to install for %s", args[0])
			}

			fmt.Printf("Latest release %s: %s\n", result.LatestVersion, target)
			if !openTarget {
				return nil
			}
			return platform.Current().OpenURL(target)
		})
	},
}

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <app-id>",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove an installed application",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			m, err := a.registry.Get(args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(fmt.Sprintf("Remove %s and all its files?", m.Name))
			if err != nil || !ok {
				return err
			}

			result, err := a.service.Uninstall(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(okStyle.Render(result.Message))
			return nil
		})
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size <app-id>",
	Short: "Show the disk usage of an installed application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			size, err := a.service.GetAppSize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%d bytes)\n", size.Formatted, size.Bytes)
			return nil
		})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <app-id>",
	Short: "Show details about an installed executable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			info, err := a.lifecycle.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Path:     %s\n", info.Path)
			fmt.Printf("Size:     %s\n", lifecycle.FormatBytes(info.Size))
			fmt.Printf("Modified: %s (%s)\n", info.Modified.Format(time.RFC1123), relativeTime(&info.Modified))
			return nil
		})
	},
}

var clearAllCmd = &cobra.Command{
	Use:   "clear-all",
	Short: "Remove every installed application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ok, err := confirm(fmt.Sprintf("Delete everything in %s?", a.lifecycle.InstallRoot()))
			if err != nil || !ok {
				return err
			}
			if err := a.service.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(okStyle.Render("All apps removed"))
			return nil
		})
	},
}

var releasesCmd = &cobra.Command{
	Use:   "releases <app-id>",
	Short: "List the published releases of an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			releases, err := a.service.ListReleases(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(releases) == 0 {
				fmt.Println("No releases published")
				return nil
			}
			for _, r := range releases {
				line := headerStyle.Render(r.TagName)
				if r.Name != "" && r.Name != r.TagName {
					line += " " + r.Name
				}
				if !r.PublishedAt.IsZero() {
					line += dimStyle.Render(" " + humanizeTime(r.PublishedAt))
				}
				if r.Prerelease {
					line += warnStyle.Render(" prerelease")
				}
				fmt.Println(line)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [app-id]",
	Short: "Show recorded update checks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return withApp(cmd.Context(), func(a *app) error {
			if historyPrune > 0 {
				n, err := a.service.PruneHistory(cmd.Context(), historyPrune)
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %d check(s) older than %s\n", n, historyPrune)
			}

			checks, err := a.service.History(cmd.Context(), id, historyLimit)
			if err != nil {
				return err
			}
			if len(checks) == 0 {
				fmt.Println("No update checks recorded")
				return nil
			}
			for _, c := range checks {
				outcome := okStyle.Render("up to date")
				switch {
				case c.Error != "":
					outcome = errorStyle.Render("failed: ") + c.Error
				case c.Available:
					outcome = warnStyle.Render("update " + c.LatestVersion)
				case c.LatestVersion == "":
					outcome = dimStyle.Render("no release")
				}
				fmt.Printf("%s  %s  %s  %s\n",
					dimStyle.Render(humanizeTime(c.CheckedAt)), idColumn.Render(c.AppID), c.CurrentVersion, outcome)
			}
			return nil
		})
	},
}

var openFolderCmd = &cobra.Command{
	Use:   "open-folder",
	Short: "Open the installation root in the file manager",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			dir := a.lifecycle.InstallRoot()
			if err := os.MkdirAll(dir, 0755); err != nil {
				return apperr.Wrap(apperr.Filesystem, err, "failed to create %s", dir)
			}
			fmt.Println(dir)
			return platform.Current().OpenURL(dir)
		})
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "filter by name, description, category or id")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", catalog.AllCategories, "show only one category")
	listCmd.Flags().BoolVar(&listFuzzy, "fuzzy", false, "rank by fuzzy match instead of substring")

	launchCmd.Flags().BoolVarP(&launchWait, "wait", "w", false, "wait until the process is confirmed running")
	uninstallCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	clearAllCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	installCmd.Flags().BoolVar(&openTarget, "open", true, "open the download in the browser")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of checks to show")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete checks older than this first (e.g. 720h)")

	rootCmd.AddCommand(listCmd, launchCmd, checkCmd, checkAllCmd, installCmd, uninstallCmd,
		sizeCmd, infoCmd, clearAllCmd, releasesCmd, historyCmd, openFolderCmd)
}

// pickApp returns the id argument, or asks the user to pick one
func pickApp(ctx context.Context, a *app, args []string, installedOnly bool) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	apps, err := a.service.ListApps(ctx)
	if err != nil {
		return "", err
	}
	if installedOnly {
		installed := apps[:0]
		for _, m := range apps {
			if m.Installed {
				installed = append(installed, m)
			}
		}
		apps = installed
	}

	m, err := selector.SelectApp(apps, catalog.NewFilter())
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// confirm asks a yes/no question unless --yes was given
func confirm(message string) (bool, error) {
	if assumeYes {
		return true, nil
	}

	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
	if errors.Is(err, terminal.InterruptErr) {
		return false, nil
	}
	return ok, err
}

func humanizeTime(t time.Time) string {
	return relativeTime(&t)
}
