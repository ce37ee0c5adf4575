package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"vitalsched/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/vitalsched?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			record_id TEXT,
			risk_score DOUBLE PRECISION NOT NULL,
			combined_effectiveness DOUBLE PRECISION NOT NULL,
			new_attendance_prob DOUBLE PRECISION NOT NULL,
			total_cost DOUBLE PRECISION NOT NULL,
			roi_ratio DOUBLE PRECISION,
			selected_json JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_ts ON decisions(ts)`,
		`CREATE TABLE IF NOT EXISTS sweep_results (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			sweep_id TEXT NOT NULL,
			risk_threshold DOUBLE PRECISION NOT NULL,
			population_size INTEGER NOT NULL,
			intervened_count INTEGER NOT NULL,
			baseline_adverse DOUBLE PRECISION NOT NULL,
			expected_adverse DOUBLE PRECISION NOT NULL,
			prevented DOUBLE PRECISION NOT NULL,
			total_cost DOUBLE PRECISION NOT NULL,
			revenue_gained DOUBLE PRECISION NOT NULL,
			net_benefit DOUBLE PRECISION NOT NULL,
			roi_percent DOUBLE PRECISION NOT NULL
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

func (s *postgresStore) SaveDecision(ctx context.Context, decision model.InterventionDecision) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (ts, record_id, risk_score, combined_effectiveness, new_attendance_prob, total_cost, roi_ratio, selected_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
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

func (s *postgresStore) SaveSweep(ctx context.Context, sweepID string, rows []model.ThresholdResult) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)
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
