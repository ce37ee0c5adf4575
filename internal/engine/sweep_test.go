package engine

import (
	"context"
	"testing"

	"vitalsched/internal/config"
	"vitalsched/internal/model"
	"vitalsched/internal/results"
)

func sweepPopulation() []model.RiskRecord {
	return []model.RiskRecord{
		{ID: "low", RiskScore: 0.2},
		{ID: "mid", RiskScore: 0.6},
		{ID: "high", RiskScore: 0.9, Factors: map[string]float64{FactorTransportScore: 2}},
	}
}

func TestSweepMatchesManualAggregation(t *testing.T) {
	eng := newEngineForTest()
	records := sweepPopulation()
	budget := model.CappedBudget(20)

	rows, err := eng.Sweep(context.Background(), records, []float64{0.5}, budget, 150)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]

	var attendance, totalCost float64
	intervened := 0
	for _, rec := range records {
		if rec.RiskScore < 0.5 {
			attendance += 1 - rec.RiskScore
			continue
		}
		decision, err := eng.Optimize(rec.RiskScore, rec.Factors, budget, 150)
		if err != nil {
			t.Fatalf("optimize: %v", err)
		}
		attendance += decision.NewAttendance
		totalCost += decision.TotalCost
		if decision.TotalCost > 0 {
			intervened++
		}
	}

	if row.PopulationSize != len(records) {
		t.Fatalf("population = %d, want %d", row.PopulationSize, len(records))
	}
	if row.IntervenedCount != intervened {
		t.Fatalf("intervened = %d, want %d", row.IntervenedCount, intervened)
	}
	if !almostEqual(row.TotalCost, totalCost) {
		t.Fatalf("total cost = %v, want %v", row.TotalCost, totalCost)
	}
	wantExpected := float64(len(records)) - attendance
	if !almostEqual(row.ExpectedAdverseCount, wantExpected) {
		t.Fatalf("expected adverse = %v, want %v", row.ExpectedAdverseCount, wantExpected)
	}
	// scores 0.6 and 0.9 sit at or above the baseline cutoff
	if !almostEqual(row.BaselineAdverseCount, 2) {
		t.Fatalf("baseline adverse = %v, want 2", row.BaselineAdverseCount)
	}
	wantPrevented := 2 - wantExpected
	if !almostEqual(row.PreventedCount, wantPrevented) {
		t.Fatalf("prevented = %v, want %v", row.PreventedCount, wantPrevented)
	}
	wantNet := wantPrevented*150 - totalCost
	if !almostEqual(row.NetBenefit, wantNet) {
		t.Fatalf("net benefit = %v, want %v", row.NetBenefit, wantNet)
	}
	if !almostEqual(row.ROIPercent, wantNet/totalCost*100) {
		t.Fatalf("roi percent = %v, want %v", row.ROIPercent, wantNet/totalCost*100)
	}
}

func TestSweepBaselineCutoffIndependentOfThreshold(t *testing.T) {
	eng := newEngineForTest()
	records := sweepPopulation()
	rows, err := eng.Sweep(context.Background(), records, []float64{0.3, 0.95}, model.CappedBudget(20), 150)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	for _, row := range rows {
		if !almostEqual(row.BaselineAdverseCount, 2) {
			t.Fatalf("threshold %v: baseline adverse = %v, want the fixed-cutoff count 2",
				row.RiskThreshold, row.BaselineAdverseCount)
		}
	}
}

func TestSweepNoInterventionsZeroROI(t *testing.T) {
	eng := newEngineForTest()
	rows, err := eng.Sweep(context.Background(), sweepPopulation(), []float64{0.95}, model.CappedBudget(20), 150)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	row := rows[0]
	if row.IntervenedCount != 0 || row.TotalCost != 0 {
		t.Fatalf("intervened=%d cost=%v, want none above threshold 0.95", row.IntervenedCount, row.TotalCost)
	}
	if row.ROIPercent != 0 {
		t.Fatalf("roi percent = %v, want 0 at zero cost", row.ROIPercent)
	}
}

func TestSweepDefaultGridOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	eng := NewEngine(cfg, nil, nil, nil, nil, nil)
	rows, err := eng.Sweep(context.Background(), sweepPopulation(), nil, model.CappedBudget(20), 150)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	grid := cfg.Engine.Thresholds
	if len(rows) != len(grid) {
		t.Fatalf("got %d rows, want %d", len(rows), len(grid))
	}
	for i, row := range rows {
		if row.RiskThreshold != grid[i] {
			t.Fatalf("row %d threshold = %v, want %v", i, row.RiskThreshold, grid[i])
		}
	}
}

func TestSweepNegativeBudget(t *testing.T) {
	eng := newEngineForTest()
	if _, err := eng.Sweep(context.Background(), sweepPopulation(), []float64{0.5}, model.CappedBudget(-5), 150); err != ErrInvalidBudget {
		t.Fatalf("err = %v, want ErrInvalidBudget", err)
	}
}

func TestSweepRetainsResult(t *testing.T) {
	sweeps := results.NewSweepStore(10)
	eng := NewEngine(config.DefaultConfig(), nil, nil, nil, sweeps, nil)
	rows, err := eng.Sweep(context.Background(), sweepPopulation(), []float64{0.5}, model.CappedBudget(20), 150)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	id, stored, ok := sweeps.Latest()
	if !ok {
		t.Fatalf("no sweep retained")
	}
	if id == "" {
		t.Fatalf("empty sweep id")
	}
	if len(stored) != len(rows) {
		t.Fatalf("retained %d rows, want %d", len(stored), len(rows))
	}
}
