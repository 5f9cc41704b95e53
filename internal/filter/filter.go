package filter

import (
	"strings"

	"github.com/czmobin/karlancer/internal/model"
)

// TechFilter rejects projects mentioning blacklisted technologies, requires a
// whitelisted one when a whitelist is configured, and enforces a minimum
// budget. Matching is case-insensitive substring over title, description and
// skill names. The zero value matches everything.
type TechFilter struct {
	whitelist []string
	blacklist []string
	minBudget int64
}

// NewTechFilter returns a filter over the combined project text.
// Empty keyword lists are treated as "match all"; minBudget 0 disables the
// budget check.
func NewTechFilter(whitelist, blacklist []string, minBudget int64) *TechFilter {
	return &TechFilter{
		whitelist: whitelist,
		blacklist: blacklist,
		minBudget: minBudget,
	}
}

// Match reports whether the project passes all configured checks.
func (f *TechFilter) Match(project model.Project) bool {
	combined := combinedText(project)

	for _, tech := range f.blacklist {
		if strings.Contains(combined, strings.ToLower(tech)) {
			return false
		}
	}

	if len(f.whitelist) > 0 {
		matched := false
		for _, tech := range f.whitelist {
			if strings.Contains(combined, strings.ToLower(tech)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.minBudget > 0 && project.MinBudget < f.minBudget {
		return false
	}

	return true
}

func combinedText(project model.Project) string {
	parts := []string{project.Title, project.Description}
	for _, s := range project.Skills {
		parts = append(parts, s.Name)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
