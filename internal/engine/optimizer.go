package engine

import (
	"errors"
	"sort"
	"time"

	"vitalsched/internal/model"
)

// ErrInvalidBudget is returned for a negative budget cap. Budgets are
// never silently clamped.
var ErrInvalidBudget = errors.New("intervention budget must not be negative")

// Optimize selects the intervention set for one subject: candidates from
// the matcher, ranked by descending ROI, accumulated greedily while they
// fit the budget and return more than they cost. The greedy pass stops at
// the first rejected candidate; it does not backtrack.
func (e *Engine) Optimize(riskScore float64, riskFactors map[string]float64, budget model.Budget, appointmentValue float64) (model.InterventionDecision, error) {
	return e.optimizeRecord(model.RiskRecord{RiskScore: riskScore, Factors: riskFactors}, budget, appointmentValue)
}

func (e *Engine) optimizeRecord(rec model.RiskRecord, budget model.Budget, appointmentValue float64) (model.InterventionDecision, error) {
	if amount, capped := budget.Amount(); capped && amount < 0 {
		return model.InterventionDecision{}, ErrInvalidBudget
	}

	candidates := e.matchRecord(rec)
	ranked := make([]model.SelectedIntervention, 0, len(candidates))
	for _, iv := range candidates {
		ranked = append(ranked, model.SelectedIntervention{
			ID:            iv.ID,
			Description:   iv.Description,
			Effectiveness: iv.Effectiveness,
			Cost:          iv.Cost,
			ROI:           e.InterventionROI(rec.RiskScore, iv, appointmentValue),
		})
	}
	// stable: equal ROIs keep the matcher's effectiveness order
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ROI.Better(ranked[j].ROI)
	})

	selected := make([]model.SelectedIntervention, 0, len(ranked))
	if amount, capped := budget.Amount(); capped {
		remaining := amount
		for _, cand := range ranked {
			if cand.Cost > remaining || !cand.ROI.Positive() {
				break
			}
			selected = append(selected, cand)
			remaining -= cand.Cost
			if remaining <= 0 {
				break
			}
		}
	} else {
		for _, cand := range ranked {
			if cand.ROI.Positive() {
				selected = append(selected, cand)
			}
		}
	}

	// Diminishing returns in selected order: each intervention acts only
	// on the probability mass still at risk after the ones before it.
	baseline := 1 - rec.RiskScore
	combined := 0.0
	totalCost := 0.0
	for _, sel := range selected {
		remainingRisk := 1 - (baseline + combined)
		combined += remainingRisk * sel.Effectiveness
		totalCost += sel.Cost
	}

	decision := model.InterventionDecision{
		RecordID:              rec.ID,
		Timestamp:             time.Now().UTC(),
		RiskScore:             rec.RiskScore,
		Selected:              selected,
		CombinedEffectiveness: combined,
		BaselineAttendance:    baseline,
		NewAttendance:         baseline + combined,
		TotalCost:             totalCost,
		ROI:                   model.UndefinedROI(),
	}
	if totalCost > 0 {
		net := combined*appointmentValue - totalCost
		decision.ROI = model.FiniteROI(net / totalCost)
	}
	return decision, nil
}
