package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dikkadev/launchhub/pkg/registry"
	"github.com/dikkadev/launchhub/pkg/updater"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	idColumn     = lipgloss.NewStyle().Width(18)
	nameColumn   = lipgloss.NewStyle().Width(26)
	stateColumn  = lipgloss.NewStyle().Width(15)
	versionStyle = lipgloss.NewStyle().Width(10)
)

func printApps(apps []registry.Manifest) {
	if len(apps) == 0 {
		fmt.Println("No apps in the catalog")
		return
	}

	fmt.Println(headerStyle.Render(
		idColumn.Render("ID") + nameColumn.Render("NAME") + versionStyle.Render("VERSION") + stateColumn.Render("STATE") + "CATEGORY",
	))
	for _, app := range apps {
		state := dimStyle.Render("not installed")
		if app.Installed {
			state = okStyle.Render("installed")
		}
		fmt.Println(
			idColumn.Render(app.ID) +
				nameColumn.Render(app.Name) +
				versionStyle.Render(app.Version) +
				stateColumn.Render(state) +
				app.Category,
		)
	}
}

func printUpdate(name string, r *updater.Result) {
	switch {
	case r.Available:
		fmt.Printf("%s: %s %s -> %s\n", name, warnStyle.Render("update available"), r.CurrentVersion, r.LatestVersion)
		if target := r.Target(); target != "" {
			fmt.Printf("  %s\n", target)
		}
		if r.PublishedAt != nil {
			fmt.Printf("  published %s\n", humanize.Time(*r.PublishedAt))
		}
	case r.Message != "":
		fmt.Printf("%s: %s\n", name, dimStyle.Render(r.Message))
	default:
		fmt.Printf("%s: %s (%s)\n", name, okStyle.Render("up to date"), r.CurrentVersion)
	}
	for _, w := range r.Warnings {
		fmt.Printf("  %s %s\n", warnStyle.Render("warning:"), w)
	}
}

// relativeTime renders t like "3 hours ago", or "never" for nil
func relativeTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return humanize.Time(*t)
}
