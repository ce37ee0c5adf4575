package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"vitalsched/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:vitalsched.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			record_id TEXT,
			risk_score REAL NOT NULL,
			combined_effectiveness REAL NOT NULL,
			new_attendance_prob REAL NOT NULL,
			total_cost REAL NOT NULL,
			roi_ratio REAL,
			selected_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_ts ON decisions(ts)`,
		`CREATE TABLE IF NOT EXISTS sweep_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			sweep_id TEXT NOT NULL,
			risk_threshold REAL NOT NULL,
			population_size INTEGER NOT NULL,
			intervened_count INTEGER NOT NULL,
			baseline_adverse REAL NOT NULL,
			expected_adverse REAL NOT NULL,
			prevented REAL NOT NULL,
			total_cost REAL NOT NULL,
			revenue_gained REAL NOT NULL,
			net_benefit REAL NOT NULL,
			roi_percent REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sweep_results_sweep ON sweep_results(sweep_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveDecision(ctx context.Context, decision model.InterventionDecision) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (ts, record_id, risk_score, combined_effectiveness, new_attendance_prob, total_cost, roi_ratio, selected_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		decision.Timestamp.UTC(),
		decision.RecordID,
		decision.RiskScore,
		decision.CombinedEffectiveness,
		decision.NewAttendance,
		decision.TotalCost,
		roiColumn(decision.ROI),
		encodeJSON(decision.Selected),
	)
	return err
}

func (s *sqliteStore) SaveSweep(ctx context.Context, sweepID string, rows []model.ThresholdResult) error {
	if s.db == nil || sweepID == "" || len(rows) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sweep_results (ts, sweep_id, risk_threshold, population_size, intervened_count, baseline_adverse, expected_adverse, prevented, total_cost, revenue_gained, net_benefit, roi_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			nowUTC(),
			sweepID,
			row.RiskThreshold,
			row.PopulationSize,
			row.IntervenedCount,
			row.BaselineAdverseCount,
			row.ExpectedAdverseCount,
			row.PreventedCount,
			row.TotalCost,
			row.RevenueGained,
			row.NetBenefit,
			row.ROIPercent,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
