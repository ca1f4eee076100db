// Package catalog holds the search and category state of one catalog view.
package catalog

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dikkadev/launchhub/pkg/registry"
)

// AllCategories matches every category
const AllCategories = "all"

// Filter is the view-model of a catalog session. The zero value matches
// everything.
type Filter struct {
	SearchTerm string
	Category   string
	// Fuzzy ranks by subsequence match instead of requiring a substring
	Fuzzy bool
}

// NewFilter returns a filter that matches every application
func NewFilter() *Filter {
	return &Filter{Category: AllCategories}
}

// SetSearch normalizes and stores the search term
func (f *Filter) SetSearch(term string) {
	f.SearchTerm = strings.ToLower(strings.TrimSpace(term))
}

// SetCategory stores the category, empty meaning all
func (f *Filter) SetCategory(category string) {
	if category == "" {
		category = AllCategories
	}
	f.Category = category
}

func (f *Filter) matchesCategory(m *registry.Manifest) bool {
	return f.Category == "" || f.Category == AllCategories || m.Category == f.Category
}

func searchText(m *registry.Manifest) string {
	return strings.ToLower(strings.Join([]string{m.Name, m.Description, m.Category, m.ID}, " "))
}

// Matches reports whether one manifest passes the category and the substring
// search. Fuzzy mode is only honored by Apply.
func (f *Filter) Matches(m *registry.Manifest) bool {
	if !f.matchesCategory(m) {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	if term == "" {
		return true
	}
	for _, field := range []string{m.Name, m.Description, m.Category, m.ID} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

type manifests []*registry.Manifest

func (s manifests) String(i int) string { return searchText(s[i]) }
func (s manifests) Len() int            { return len(s) }

// Apply returns the matching manifests. Substring mode keeps catalog order,
// fuzzy mode orders by match score.
func (f *Filter) Apply(apps []registry.Manifest) []registry.Manifest {
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))

	if !f.Fuzzy || term == "" {
		out := make([]registry.Manifest, 0, len(apps))
		for i := range apps {
			if f.Matches(&apps[i]) {
				out = append(out, apps[i])
			}
		}
		return out
	}

	var candidates manifests
	for i := range apps {
		if f.matchesCategory(&apps[i]) {
			candidates = append(candidates, &apps[i])
		}
	}

	matches := fuzzy.FindFrom(term, candidates)
	out := make([]registry.Manifest, 0, len(matches))
	for _, match := range matches {
		out = append(out, *candidates[match.Index])
	}
	return out
}

// CategoryCounts counts applications per category. The AllCategories key
// holds the total.
func CategoryCounts(apps []registry.Manifest) map[string]int {
	counts := map[string]int{AllCategories: len(apps)}
	for _, app := range apps {
		if app.Category != "" {
			counts[app.Category]++
		}
	}
	return counts
}

// Categories lists the distinct categories in alphabetical order
func Categories(apps []registry.Manifest) []string {
	seen := make(map[string]bool)
	var out []string
	for _, app := range apps {
		if app.Category != "" && !seen[app.Category] {
			seen[app.Category] = true
			out = append(out, app.Category)
		}
	}
	sort.Strings(out)
	return out
}
