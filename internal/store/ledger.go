package store

import (
	"fmt"
	"time"

	"github.com/czmobin/karlancer/internal/model"
)

// Record upserts the outcome for a project. The last write for an ID wins;
// re-processing after a crash simply overwrites the earlier row.
func (d *DB) Record(o model.Outcome) error {
	_, err := d.db.Exec(`
		INSERT INTO outcomes (project_id, title, fetched_at, analyzed, submitted, detail, analysis_file)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			title = excluded.title,
			fetched_at = excluded.fetched_at,
			analyzed = excluded.analyzed,
			submitted = excluded.submitted,
			detail = excluded.detail,
			analysis_file = excluded.analysis_file`,
		o.ProjectID, o.Title, o.FetchedAt.Format(time.RFC3339),
		o.Analyzed, o.Submitted, o.Detail, o.AnalysisFile,
	)
	if err != nil {
		return fmt.Errorf("recording outcome for %d: %w", o.ProjectID, err)
	}
	return nil
}

// Totals derives the aggregate counters from the outcomes table, so each
// counter always equals the count of rows satisfying its predicate.
func (d *DB) Totals() (model.Totals, error) {
	var t model.Totals
	err := d.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(analyzed), 0),
		       COALESCE(SUM(submitted), 0),
		       COALESCE(SUM(CASE WHEN analyzed = 0 THEN 1 ELSE 0 END), 0)
		FROM outcomes`).Scan(&t.Fetched, &t.Analyzed, &t.Submitted, &t.Failed)
	if err != nil {
		return model.Totals{}, fmt.Errorf("computing totals: %w", err)
	}
	return t, nil
}

// Outcomes returns all ledger entries, newest first.
func (d *DB) Outcomes() ([]model.Outcome, error) {
	rows, err := d.db.Query(`
		SELECT project_id, title, fetched_at, analyzed, submitted, detail, analysis_file
		FROM outcomes ORDER BY fetched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		var fetchedAt string
		if err := rows.Scan(&o.ProjectID, &o.Title, &fetchedAt, &o.Analyzed, &o.Submitted, &o.Detail, &o.AnalysisFile); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
