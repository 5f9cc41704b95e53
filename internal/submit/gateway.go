package submit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/czmobin/karlancer/internal/analyze"
	"github.com/czmobin/karlancer/internal/marketplace"
	"github.com/czmobin/karlancer/internal/model"
)

const (
	// minDescriptionChars rejects bids whose extracted description is too
	// short to be a credible proposal; no remote call is made in that case.
	minDescriptionChars = 50

	// Fixed fallbacks when neither the detail endpoint nor the analysis text
	// yields a usable milestone.
	defaultBudget   int64 = 5000000
	defaultDuration       = 7

	milestoneDescription = "انجام کامل پروژه"
)

// API is the slice of the marketplace client the gateway needs.
type API interface {
	ProjectDetail(ctx context.Context, projectID int64) (*model.ProjectDetail, error)
	SubmitBid(ctx context.Context, bid marketplace.Bid) error
}

// Gateway turns an analysis into a bid and posts it. Submission is not
// idempotent at the marketplace — a duplicate POST creates a duplicate bid —
// so callers gate it behind the seen-projects store.
type Gateway struct {
	api    API
	logger *slog.Logger
}

func NewGateway(api API, logger *slog.Logger) *Gateway {
	return &Gateway{api: api, logger: logger}
}

// Submit builds and posts a bid for the project. Every failure, local or
// remote, is reported through the SubmitResult; nothing propagates.
func (g *Gateway) Submit(ctx context.Context, project model.Project, analysis *model.Analysis) model.SubmitResult {
	content, err := os.ReadFile(analysis.File)
	if err != nil {
		return model.SubmitResult{Detail: fmt.Sprintf("reading analysis file: %v", err)}
	}

	description := stripHeader(string(content), analyze.HeaderLines)
	if n := utf8.RuneCountInString(description); n < minDescriptionChars {
		return model.SubmitResult{Detail: fmt.Sprintf("description too short (%d chars)", n)}
	}

	budget, duration := g.resolveMilestone(ctx, project.ID, analysis.Text)

	bid := marketplace.Bid{
		ProjectID:   project.ID,
		Description: description,
		Milestones: []marketplace.Milestone{{
			Description: milestoneDescription,
			Duration:    strconv.Itoa(duration),
			Budget:      strconv.FormatInt(budget, 10),
		}},
	}

	if err := g.api.SubmitBid(ctx, bid); err != nil {
		g.logger.Error("bid rejected", "project_id", project.ID, "error", err)
		return model.SubmitResult{Detail: err.Error()}
	}

	g.logger.Info("bid submitted", "project_id", project.ID, "budget", budget, "duration", duration)
	return model.SubmitResult{OK: true}
}

// resolveMilestone picks the milestone budget and duration through an ordered
// fallback chain, each tier tried only when the previous one yields nothing
// positive: detail endpoint, then budget patterns in the analysis text, then
// the fixed defaults.
func (g *Gateway) resolveMilestone(ctx context.Context, projectID int64, analysisText string) (int64, int) {
	budget := int64(0)
	duration := 0

	detail, err := g.api.ProjectDetail(ctx, projectID)
	if err != nil {
		g.logger.Warn("project detail lookup failed", "project_id", projectID, "error", err)
	} else {
		if detail.MinBudget > 0 {
			budget = detail.MinBudget
		}
		if detail.JobDuration > 0 {
			duration = detail.JobDuration
		}
	}

	if budget <= 0 {
		budget = extractBudget(analysisText)
	}
	if budget <= 0 {
		budget = defaultBudget
	}
	if duration <= 0 {
		duration = defaultDuration
	}
	return budget, duration
}

// budgetRegexp matches budget-looking numbers: comma-grouped amounts or plain
// runs of at least seven digits. Best effort only, never the primary source
// of truth.
var budgetRegexp = regexp.MustCompile(`\d{1,3}(?:,\d{3})+|\d{7,}`)

// extractBudget scans the analysis text for the first budget-looking number.
// Returns 0 when nothing plausible is found.
func extractBudget(text string) int64 {
	match := budgetRegexp.FindString(text)
	if match == "" {
		return 0
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// stripHeader drops the first n lines (the id/timestamp header of the saved
// analysis file) and trims surrounding whitespace.
func stripHeader(content string, n int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= n {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[n:], "\n"))
}
