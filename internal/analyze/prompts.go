package analyze

import (
	_ "embed"
	"strconv"
	"strings"
	"text/template"

	"github.com/czmobin/karlancer/internal/model"
)

//go:embed prompts/proposal_prompt.txt
var defaultPromptRaw string

//go:embed project.tmpl
var projectTemplateRaw string

// projectTemplate renders a project into the fixed text handed to the analyzer.
// Parsed once at package init; reused on every SaveInput call.
var projectTemplate = template.Must(
	template.New("project").Funcs(template.FuncMap{
		"comma":  groupDigits,
		"rating": formatRating,
		"city":   formatCity,
		"skills": formatSkills,
	}).Parse(projectTemplateRaw),
)

// groupDigits formats n with thousand separators ("3000000" -> "3,000,000").
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func formatRating(rate float64) string {
	if rate <= 0 {
		return "N/A"
	}
	return strconv.FormatFloat(rate, 'f', 1, 64)
}

func formatCity(country string) string {
	if country == "" {
		return "نامشخص"
	}
	return country
}

func formatSkills(skills []model.Skill) string {
	var names []string
	for _, s := range skills {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	if len(names) == 0 {
		return "مشخص نشده"
	}
	return strings.Join(names, ", ")
}
