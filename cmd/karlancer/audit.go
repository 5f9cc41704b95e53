package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/czmobin/karlancer/internal/audit"
	"github.com/czmobin/karlancer/internal/config"
	"github.com/czmobin/karlancer/internal/filter"
	"github.com/czmobin/karlancer/internal/model"
	"github.com/czmobin/karlancer/internal/store"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse projects and proposals interactively (TUI)",
	Long:  "Shows a source picker, then launches the split-pane review view over the proposal history or a live search.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

var auditSources = []string{
	"Proposal history",
	"Live search (filter preview)",
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		choice, err := audit.RunSourcePicker(auditSources)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}

		var wantQuit bool
		switch choice {
		case 0:
			wantQuit, err = auditHistory(cfg)
		case 1:
			wantQuit, err = auditLiveSearch(cfg)
		}
		if err != nil {
			fmt.Printf("Audit error: %v\n", err)
			continue
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}

// auditHistory shows every recorded outcome on the left and the submitted
// proposals on the right.
func auditHistory(cfg *config.Config) (bool, error) {
	db, err := store.Open(filepath.Join(cfg.DataDir, "karlancer.db"))
	if err != nil {
		return false, fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	outcomes, err := db.Outcomes()
	if err != nil {
		return false, fmt.Errorf("reading outcomes: %w", err)
	}
	if len(outcomes) == 0 {
		fmt.Println("No recorded projects yet. Run the bot first.")
		return false, nil
	}

	var submitted []model.Outcome
	for _, o := range outcomes {
		if o.Submitted {
			submitted = append(submitted, o)
		}
	}

	return audit.RunAuditTUI("All Projects", "Submitted", audit.OutcomeRows(outcomes), audit.OutcomeRows(submitted))
}

// auditLiveSearch fetches the current search results and previews which ones
// the configured tech filter would let through.
func auditLiveSearch(cfg *config.Config) (bool, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	client := newAPIClient(cfg, httpClient)

	projects, err := audit.RunLoader(cfg.Query, func(ctx context.Context) ([]model.Project, error) {
		return client.FetchProjects(ctx, cfg.Query)
	})
	if err != nil {
		return false, fmt.Errorf("fetching projects: %w", err)
	}

	techFilter := filter.NewTechFilter(cfg.Filter.TechWhitelist, cfg.Filter.TechBlacklist, cfg.Filter.MinBudget)
	var matched []model.Project
	for _, p := range projects {
		if techFilter.Match(p) {
			matched = append(matched, p)
		}
	}

	return audit.RunAuditTUI("All Results", "Matched", audit.ProjectRows(projects), audit.ProjectRows(matched))
}
