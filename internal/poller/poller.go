package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/czmobin/karlancer/internal/model"
	"github.com/czmobin/karlancer/internal/notifier"
)

// ProjectPoller owns one full poll cycle: fetch → filter → dedup → analyze →
// submit → commit. Projects are processed strictly sequentially; the per-item
// commit (ledger record + mark seen) is what makes a project "processed".
type ProjectPoller struct {
	query      string
	autoSubmit bool
	itemDelay  time.Duration

	fetcher   model.ProjectFetcher
	filter    model.ProjectFilter
	seen      model.SeenStore
	ledger    model.Ledger
	analyzer  model.Analyzer
	submitter model.Submitter
	notify    model.Notifier
	logger    *slog.Logger

	cycle int
}

// Deps bundles the poller's collaborators so construction sites stay readable.
type Deps struct {
	Fetcher   model.ProjectFetcher
	Filter    model.ProjectFilter
	Seen      model.SeenStore
	Ledger    model.Ledger
	Analyzer  model.Analyzer
	Submitter model.Submitter
	Notifier  model.Notifier
	Logger    *slog.Logger
}

// New creates a poller wired with all its dependencies.
func New(query string, autoSubmit bool, itemDelay time.Duration, deps Deps) *ProjectPoller {
	return &ProjectPoller{
		query:      query,
		autoSubmit: autoSubmit,
		itemDelay:  itemDelay,
		fetcher:    deps.Fetcher,
		filter:     deps.Filter,
		seen:       deps.Seen,
		ledger:     deps.Ledger,
		analyzer:   deps.Analyzer,
		submitter:  deps.Submitter,
		notify:     deps.Notifier,
		logger:     deps.Logger,
	}
}

// ProcessCycle runs one poll cycle. A fetch failure is logged and turns the
// cycle into a no-op; it never propagates. Other store errors do, so the
// caller can decide whether the process should keep running.
func (p *ProjectPoller) ProcessCycle(ctx context.Context) error {
	p.cycle++
	p.logger.Info("searching for new projects", "cycle", p.cycle, "query", p.query)

	projects, err := p.fetcher.FetchProjects(ctx, p.query)
	if err != nil {
		// Indistinguishable from "nothing new" for this cycle; the next poll
		// is the retry mechanism.
		p.logger.Warn("fetch failed, skipping cycle", "error", err)
		return nil
	}
	if len(projects) == 0 {
		p.logger.Info("no projects returned")
		return nil
	}

	var matched []model.Project
	for _, project := range projects {
		if p.filter.Match(project) {
			matched = append(matched, project)
		}
	}

	// Source order is preserved: the API sorts newest first.
	var unseen []model.Project
	for _, project := range matched {
		if project.ID == 0 {
			continue
		}
		seen, err := p.seen.HasSeen(project.ID)
		if err != nil {
			return fmt.Errorf("checking seen status: %w", err)
		}
		if !seen {
			unseen = append(unseen, project)
		}
	}

	if len(unseen) == 0 {
		p.logger.Info("all projects already seen",
			"fetched", len(projects),
			"matched", len(matched),
		)
		return nil
	}

	p.logger.Info("new projects found", "count", len(unseen))
	p.sendNotification(notifier.NewProjects(len(unseen)))

	for i, project := range unseen {
		if ctx.Err() != nil {
			p.logger.Warn("interrupted mid-cycle", "processed", i, "remaining", len(unseen)-i)
			return nil
		}

		p.logger.Info("processing project",
			"index", fmt.Sprintf("%d/%d", i+1, len(unseen)),
			"project_id", project.ID,
			"title", project.Title,
		)
		p.processProject(ctx, project)

		// Politeness pause between projects, except after the last one.
		if i < len(unseen)-1 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.itemDelay):
			}
		}
	}

	totals, err := p.ledger.Totals()
	if err != nil {
		return fmt.Errorf("reading totals: %w", err)
	}
	p.logger.Info("cycle complete",
		"processed", len(unseen),
		"total_fetched", totals.Fetched,
		"total_analyzed", totals.Analyzed,
		"total_submitted", totals.Submitted,
		"total_failed", totals.Failed,
	)
	p.sendNotification(notifier.CycleSummary(p.cycle, totals))
	return nil
}

// processProject runs steps save → analyze → submit for one project and always
// commits: whatever the outcome, the ID is marked seen so a broken project can
// never wedge the loop into retrying forever.
func (p *ProjectPoller) processProject(ctx context.Context, project model.Project) {
	outcome := model.Outcome{
		ProjectID: project.ID,
		Title:     project.Title,
		FetchedAt: time.Now(),
	}

	if _, err := p.analyzer.SaveInput(project); err != nil {
		p.logger.Error("saving project failed", "project_id", project.ID, "error", err)
		outcome.Detail = err.Error()
		p.commit(outcome)
		return
	}

	analysis, err := p.analyzer.Analyze(ctx, project)
	if err != nil {
		p.logger.Error("analysis failed", "project_id", project.ID, "error", err)
		outcome.Detail = err.Error()
		p.sendNotification(notifier.ProjectRejected(project.ID, project.Title, err.Error()))
		p.commit(outcome)
		return
	}

	outcome.Analyzed = true
	outcome.AnalysisFile = analysis.File
	p.sendNotification(notifier.ProjectAnalyzed(project.ID, project.Title, analysis.Stars, analysis.Decision))

	if p.autoSubmit {
		result := p.submitter.Submit(ctx, project, analysis)
		outcome.Submitted = result.OK
		outcome.Detail = result.Detail
		if result.OK {
			p.sendNotification(notifier.ProjectSubmitted(project.ID, project.Title))
		} else {
			p.sendNotification(notifier.ProjectRejected(project.ID, project.Title, result.Detail))
		}
	} else {
		outcome.Detail = "auto-submit disabled"
		p.logger.Info("auto-submit disabled, proposal ready for manual review",
			"project_id", project.ID,
			"analysis_file", analysis.File,
		)
	}

	p.commit(outcome)
}

// commit is the per-project checkpoint: record the outcome, then mark the ID
// seen. Once MarkSeen returns, the project will never be processed again.
func (p *ProjectPoller) commit(outcome model.Outcome) {
	if err := p.ledger.Record(outcome); err != nil {
		p.logger.Error("recording outcome failed", "project_id", outcome.ProjectID, "error", err)
	}
	if err := p.seen.MarkSeen(outcome.ProjectID); err != nil {
		p.logger.Error("marking seen failed", "project_id", outcome.ProjectID, "error", err)
	}
}

func (p *ProjectPoller) sendNotification(text string) {
	if err := p.notify.Send(text); err != nil {
		p.logger.Warn("notification failed", "error", err)
	}
}
