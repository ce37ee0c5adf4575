// Package report summarizes batches of intervention decisions for
// operators: which interventions are actually being selected and what
// the aggregate spend looks like.
package report

import (
	"sort"

	"vitalsched/internal/model"
)

type UsageRow struct {
	InterventionID string  `json:"intervention_id"`
	Count          int     `json:"count"`
	Percentage     float64 `json:"percentage"`
}

type Totals struct {
	Decisions       int     `json:"decisions"`
	MeanRiskScore   float64 `json:"mean_risk_score"`
	TotalCost       float64 `json:"total_cost"`
	MeanImprovement float64 `json:"mean_improvement"`
	// MeanROI averages only decisions with a defined ROI; undefined
	// (zero-cost) decisions are skipped, never folded in as infinity.
	MeanROI      float64 `json:"mean_roi"`
	ROISampleLen int     `json:"roi_sample_len"`
}

type Summary struct {
	Totals Totals     `json:"totals"`
	Usage  []UsageRow `json:"usage"`
}

// Summarize aggregates a decision batch. Usage percentages are relative
// to the number of decisions: a decision selecting an intervention counts
// it once. Rows come back sorted by count descending, ties by id.
func Summarize(decisions []model.InterventionDecision) Summary {
	counts := make(map[string]int)
	totals := Totals{Decisions: len(decisions)}
	var riskSum, improvementSum, roiSum float64
	for _, d := range decisions {
		riskSum += d.RiskScore
		improvementSum += d.CombinedEffectiveness
		totals.TotalCost += d.TotalCost
		if ratio, ok := d.ROI.Ratio(); ok {
			roiSum += ratio
			totals.ROISampleLen++
		}
		for _, sel := range d.Selected {
			counts[sel.ID]++
		}
	}
	if len(decisions) > 0 {
		totals.MeanRiskScore = riskSum / float64(len(decisions))
		totals.MeanImprovement = improvementSum / float64(len(decisions))
	}
	if totals.ROISampleLen > 0 {
		totals.MeanROI = roiSum / float64(totals.ROISampleLen)
	}

	rows := make([]UsageRow, 0, len(counts))
	for id, count := range counts {
		row := UsageRow{InterventionID: id, Count: count}
		if len(decisions) > 0 {
			row.Percentage = float64(count) / float64(len(decisions)) * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].InterventionID < rows[j].InterventionID
	})
	return Summary{Totals: totals, Usage: rows}
}
