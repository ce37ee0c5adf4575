package model

import "time"

// DefaultFactorValue substitutes for any risk factor absent from a record.
// Mid-scale on the 0-10 factor scoring used by the prediction layer.
const DefaultFactorValue = 5.0

type InterventionType struct {
	ID            string  `json:"id" yaml:"id"`
	Description   string  `json:"description" yaml:"description"`
	Effectiveness float64 `json:"effectiveness" yaml:"effectiveness"`
	Cost          float64 `json:"cost" yaml:"cost"`
}

// RiskRecord is one scored subject as produced by the prediction layer.
type RiskRecord struct {
	ID        string             `json:"record_id,omitempty"`
	RiskScore float64            `json:"risk_score"`
	Factors   map[string]float64 `json:"risk_factors,omitempty"`
}

// Factor returns the named risk factor, or DefaultFactorValue when missing.
func (r RiskRecord) Factor(name string) float64 {
	if v, ok := r.Factors[name]; ok {
		return v
	}
	return DefaultFactorValue
}

type SelectedIntervention struct {
	ID            string  `json:"id"`
	Description   string  `json:"description"`
	Effectiveness float64 `json:"effectiveness"`
	Cost          float64 `json:"cost"`
	ROI           ROI     `json:"roi"`
}

// InterventionDecision is the optimizer output for a single record.
// Selected is ordered by descending ROI, the order in which the
// diminishing-returns composition was applied.
type InterventionDecision struct {
	RecordID              string                 `json:"record_id,omitempty"`
	Timestamp             time.Time              `json:"timestamp"`
	RiskScore             float64                `json:"risk_score"`
	Selected              []SelectedIntervention `json:"selected"`
	CombinedEffectiveness float64                `json:"combined_effectiveness"`
	BaselineAttendance    float64                `json:"baseline_attendance_prob"`
	NewAttendance         float64                `json:"new_attendance_prob"`
	TotalCost             float64                `json:"total_cost"`
	ROI                   ROI                    `json:"roi"`
}

// SelectedIDs returns the ordered intervention ids of the selection.
func (d InterventionDecision) SelectedIDs() []string {
	out := make([]string, 0, len(d.Selected))
	for _, s := range d.Selected {
		out = append(out, s.ID)
	}
	return out
}

// ThresholdResult is one row of a population threshold sweep.
// BaselineAdverseCount counts records at or above the fixed baseline
// cutoff, independent of the sweep threshold itself.
type ThresholdResult struct {
	RiskThreshold        float64 `json:"risk_threshold"`
	PopulationSize       int     `json:"population_size"`
	IntervenedCount      int     `json:"intervened_count"`
	BaselineAdverseCount float64 `json:"baseline_adverse_count"`
	ExpectedAdverseCount float64 `json:"expected_adverse_count"`
	PreventedCount       float64 `json:"prevented_count"`
	TotalCost            float64 `json:"total_cost"`
	RevenueGained        float64 `json:"revenue_gained"`
	NetBenefit           float64 `json:"net_benefit"`
	ROIPercent           float64 `json:"roi_percent"`
}
