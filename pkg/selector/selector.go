// Package selector is the interactive application picker of the CLI.
package selector

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dikkadev/launchhub/pkg/catalog"
	"github.com/dikkadev/launchhub/pkg/registry"
)

// ErrNoSelection is returned when the picker is closed without a choice
var ErrNoSelection = errors.New("no app selected")

const maxDescription = 100

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	installedMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Render("●")
	missingMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render("○")
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	categoryActive = lipgloss.NewStyle().Underline(true)
)

// AppItem is one row of the picker
type AppItem struct {
	app registry.Manifest
}

func (i AppItem) Title() string {
	mark := missingMark
	if i.app.Installed {
		mark = installedMark
	}
	return fmt.Sprintf("%s %s", mark, i.app.Name)
}

func (i AppItem) Description() string {
	prefix := ""
	if i.app.Category != "" {
		prefix = i.app.Category + " | "
	}
	if i.app.Version != "" {
		prefix += "v" + i.app.Version + " | "
	}
	desc := i.app.Description
	maxLen := maxDescription - len(prefix)
	if len(desc) > maxLen {
		desc = desc[:maxLen-3] + "..."
	}
	return prefix + desc
}

func (i AppItem) FilterValue() string {
	return i.app.Name
}

type model struct {
	list       list.Model
	apps       []registry.Manifest
	filter     *catalog.Filter
	categories []string
	selected   *registry.Manifest
	quitting   bool
}

func newModel(apps []registry.Manifest, filter *catalog.Filter) model {
	categories := append([]string{catalog.AllCategories}, catalog.Categories(apps)...)
	items := prepareItems(apps, filter)

	height := min(20, len(items)*3+6)
	l := list.New(items, list.NewDefaultDelegate(), 80, height)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.Styles.Title = titleStyle

	m := model{
		list:       l,
		apps:       apps,
		filter:     filter,
		categories: categories,
	}
	m.refreshTitle()
	return m
}

// prepareItems applies the filter and converts the result to list items
func prepareItems(apps []registry.Manifest, filter *catalog.Filter) []list.Item {
	filtered := filter.Apply(apps)
	items := make([]list.Item, len(filtered))
	for i, app := range filtered {
		items[i] = AppItem{app: app}
	}
	return items
}

func (m *model) refreshTitle() {
	counts := catalog.CategoryCounts(m.apps)
	title := "Select an app"
	for _, c := range m.categories {
		label := fmt.Sprintf("%s (%d)", c, counts[c])
		if c == m.filter.Category || (m.filter.Category == "" && c == catalog.AllCategories) {
			label = categoryActive.Render(label)
		}
		title += "  " + label
	}
	m.list.Title = title
}

// nextCategory moves the category filter forward and re-applies it
func (m *model) nextCategory() tea.Cmd {
	current := 0
	for i, c := range m.categories {
		if c == m.filter.Category {
			current = i
			break
		}
	}
	m.filter.SetCategory(m.categories[(current+1)%len(m.categories)])
	m.refreshTitle()
	return m.list.SetItems(prepareItems(m.apps, m.filter))
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

		// typed text belongs to the list's own filter input
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "esc":
				m.quitting = true
				return m, tea.Quit
			case "tab":
				return m, m.nextCategory()
			case "enter":
				if i, ok := m.list.SelectedItem().(AppItem); ok {
					app := i.app
					m.selected = &app
					return m, tea.Quit
				}
			case "pgdown", "ctrl+d":
				m.list.NextPage()
			case "pgup", "ctrl+u":
				m.list.PrevPage()
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("\nNavigate: ↑/↓ • Category: Tab • Filter: / • Select: Enter • Quit: Esc/q\n")
	return m.list.View() + help
}

// SelectApp lets the user pick one of the apps passing filter. A single
// match is returned without showing the picker.
func SelectApp(apps []registry.Manifest, filter *catalog.Filter) (*registry.Manifest, error) {
	if filter == nil {
		filter = catalog.NewFilter()
	}

	matches := filter.Apply(apps)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no apps match %q", filter.SearchTerm)
	case 1:
		return &matches[0], nil
	}

	prog := tea.NewProgram(newModel(apps, filter))
	finalModel, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run UI: %w", err)
	}

	if m, ok := finalModel.(model); ok && m.selected != nil {
		return m.selected, nil
	}
	return nil, ErrNoSelection
}
