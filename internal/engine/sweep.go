package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"vitalsched/internal/model"
)

// Sweep evaluates the population at each risk threshold: records at or
// above the threshold are optimized under the per-record budget, the rest
// keep their baseline attendance. Thresholds are independent of each
// other and are evaluated by a bounded worker pool; results come back in
// grid order. An empty threshold slice uses the configured grid.
func (e *Engine) Sweep(ctx context.Context, records []model.RiskRecord, thresholds []float64, budget model.Budget, appointmentValue float64) ([]model.ThresholdResult, error) {
	if amount, capped := budget.Amount(); capped && amount < 0 {
		return nil, ErrInvalidBudget
	}
	if len(thresholds) == 0 {
		thresholds = e.config().Engine.Thresholds
	}

	rows := make([]model.ThresholdResult, len(thresholds))
	workers := e.config().Engine.SweepWorkers
	if workers > len(thresholds) {
		workers = len(thresholds)
	}
	if workers <= 1 {
		for i, threshold := range thresholds {
			rows[i] = e.sweepThreshold(records, threshold, budget, appointmentValue)
		}
	} else {
		indexes := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexes {
					rows[i] = e.sweepThreshold(records, thresholds[i], budget, appointmentValue)
				}
			}()
		}
		for i := range thresholds {
			indexes <- i
		}
		close(indexes)
		wg.Wait()
	}

	sweepID := uuid.NewString()
	if e.sweeps != nil {
		e.sweeps.Put(sweepID, rows)
	}
	if e.logger != nil {
		e.logger.Info("threshold sweep complete",
			"sweep_id", sweepID,
			"thresholds", len(thresholds),
			"population", len(records),
		)
	}
	if e.store != nil {
		_ = e.store.SaveSweep(ctx, sweepID, rows)
	}
	return rows, nil
}

func (e *Engine) sweepThreshold(records []model.RiskRecord, threshold float64, budget model.Budget, appointmentValue float64) model.ThresholdResult {
	// The baseline adverse count uses the fixed configured cutoff, not
	// the sweep threshold. Prevented counts at every threshold are
	// measured against the same reference population.
	cutoff := e.config().Engine.BaselineRiskCutoff

	var baselineAdverse, attendanceSum, totalCost float64
	intervened := 0
	for _, rec := range records {
		if rec.RiskScore >= cutoff {
			baselineAdverse++
		}
		if rec.RiskScore < threshold {
			attendanceSum += 1 - rec.RiskScore
			continue
		}
		decision, err := e.optimizeRecord(rec, budget, appointmentValue)
		if err != nil {
			// budget was validated before the sweep started
			panic("engine: sweep budget rejected mid-pass: " + err.Error())
		}
		attendanceSum += decision.NewAttendance
		totalCost += decision.TotalCost
		if decision.TotalCost > 0 {
			intervened++
		}
	}

	expectedAdverse := float64(len(records)) - attendanceSum
	prevented := baselineAdverse - expectedAdverse
	revenue := prevented * appointmentValue
	net := revenue - totalCost
	roiPercent := 0.0
	if totalCost > 0 {
		roiPercent = net / totalCost * 100
	}
	return model.ThresholdResult{
		RiskThreshold:        threshold,
		PopulationSize:       len(records),
		IntervenedCount:      intervened,
		BaselineAdverseCount: baselineAdverse,
		ExpectedAdverseCount: expectedAdverse,
		PreventedCount:       prevented,
		TotalCost:            totalCost,
		RevenueGained:        revenue,
		NetBenefit:           net,
		ROIPercent:           roiPercent,
	}
}
