package audit

import (
	"fmt"
	"os"
	"strings"

	"github.com/czmobin/karlancer/internal/model"
)

// Row is one reviewable entry in the audit TUI. Both ledger outcomes and live
// search results are converted to rows so the list and detail views stay
// source-agnostic.
type Row struct {
	ID       int64
	Title    string
	Subtitle string
	Fields   [][2]string // label/value pairs shown in the detail view
	Body     string      // long text behind the 'r' toggle
	BodyName string      // label for the body section divider
	URL      string
}

// OutcomeRows converts ledger outcomes into display rows, loading the saved
// proposal text for each one that has an analysis file.
func OutcomeRows(outcomes []model.Outcome) []Row {
	rows := make([]Row, 0, len(outcomes))
	for _, o := range outcomes {
		status := "failed"
		switch {
		case o.Submitted:
			status = "submitted"
		case o.Analyzed:
			status = "analyzed"
		}

		fields := [][2]string{
			{"Project ID", fmt.Sprintf("%d", o.ProjectID)},
			{"Status", status},
			{"Fetched At", o.FetchedAt.Format("2006-01-02 15:04")},
		}
		if o.Detail != "" {
			fields = append(fields, [2]string{"Detail", o.Detail})
		}
		if o.AnalysisFile != "" {
			fields = append(fields, [2]string{"Proposal", o.AnalysisFile})
		}

		rows = append(rows, Row{
			ID:       o.ProjectID,
			Title:    o.Title,
			Subtitle: fmt.Sprintf("%s · %s", status, o.FetchedAt.Format("2006-01-02")),
			Fields:   fields,
			Body:     readProposal(o.AnalysisFile),
			BodyName: "Proposal",
			URL:      projectURL(o.ProjectID),
		})
	}
	return rows
}

// ProjectRows converts live search results into display rows.
func ProjectRows(projects []model.Project) []Row {
	rows := make([]Row, 0, len(projects))
	for _, p := range projects {
		skills := make([]string, 0, len(p.Skills))
		for _, s := range p.Skills {
			skills = append(skills, s.Name)
		}

		fields := [][2]string{
			{"Project ID", fmt.Sprintf("%d", p.ID)},
			{"Budget", fmt.Sprintf("%d - %d", p.MinBudget, p.MaxBudget)},
			{"Duration", fmt.Sprintf("%d days", p.JobDuration)},
		}
		if p.Country != "" {
			fields = append(fields, [2]string{"City", p.Country})
		}
		if len(skills) > 0 {
			fields = append(fields, [2]string{"Skills", strings.Join(skills, ", ")})
		}

		rows = append(rows, Row{
			ID:       p.ID,
			Title:    p.Title,
			Subtitle: fmt.Sprintf("%d - %d · %d days", p.MinBudget, p.MaxBudget, p.JobDuration),
			Fields:   fields,
			Body:     p.Description,
			BodyName: "Description",
			URL:      "https://www.karlancer.com/" + p.URL,
		})
	}
	return rows
}

func readProposal(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func projectURL(id int64) string {
	return fmt.Sprintf("https://www.karlancer.com/project/%d", id)
}
