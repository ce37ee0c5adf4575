package engine

import (
	"math"
	"testing"

	"vitalsched/internal/catalog"
	"vitalsched/internal/config"
	"vitalsched/internal/model"
)

func newEngineForTest() *Engine {
	return NewEngine(config.DefaultConfig(), nil, nil, nil, nil, nil)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func matchedIDs(list []model.InterventionType) []string {
	ids := make([]string, 0, len(list))
	for _, iv := range list {
		ids = append(ids, iv.ID)
	}
	return ids
}

func TestMatchBaselineAlways(t *testing.T) {
	eng := newEngineForTest()
	for _, score := range []float64{0, 0.1, 0.5, 0.9, 1} {
		matched := eng.Match(score, nil)
		found := false
		for _, iv := range matched {
			if iv.ID == catalog.StandardReminder {
				if found {
					t.Fatalf("score %v: standard reminder matched twice", score)
				}
				found = true
			}
		}
		if !found {
			t.Fatalf("score %v: standard reminder not matched", score)
		}
	}
}

func TestMatchThresholdBoundaries(t *testing.T) {
	eng := newEngineForTest()
	cases := []struct {
		score float64
		id    string
		want  bool
	}{
		{0.29999, catalog.PersonalizedSMS, false},
		{0.3, catalog.PersonalizedSMS, true},
		{0.69999, catalog.PersonalizedSMS, true},
		{0.7, catalog.PersonalizedSMS, false},
		{0.49999, catalog.PhoneCall, false},
		{0.5, catalog.PhoneCall, true},
		{0.84999, catalog.IncentiveOffer, false},
		{0.85, catalog.IncentiveOffer, true},
	}
	for _, tc := range cases {
		got := false
		for _, iv := range eng.Match(tc.score, nil) {
			if iv.ID == tc.id {
				got = true
			}
		}
		if got != tc.want {
			t.Fatalf("score %v intervention %s: matched=%v want %v", tc.score, tc.id, got, tc.want)
		}
	}
}

func TestMatchPhoneCallOnce(t *testing.T) {
	eng := newEngineForTest()
	// both the 0.5 and 0.7 tiers request the phone call
	count := 0
	for _, iv := range eng.Match(0.8, nil) {
		if iv.ID == catalog.PhoneCall {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("phone call matched %d times, want 1", count)
	}
}

func TestMatchTransportDefaultFactor(t *testing.T) {
	eng := newEngineForTest()
	// absent transport_score defaults to 5.0, which is not below the cutoff
	for _, iv := range eng.Match(0.9, nil) {
		if iv.ID == catalog.TransportationAssist {
			t.Fatalf("transportation matched with missing factor")
		}
	}
	matched := false
	for _, iv := range eng.Match(0.9, map[string]float64{FactorTransportScore: 3}) {
		if iv.ID == catalog.TransportationAssist {
			matched = true
		}
	}
	if !matched {
		t.Fatalf("transportation not matched with transport_score 3")
	}
	for _, iv := range eng.Match(0.9, map[string]float64{FactorTransportScore: 5}) {
		if iv.ID == catalog.TransportationAssist {
			t.Fatalf("transportation matched with transport_score at the cutoff")
		}
	}
}

func TestMatchSortedByEffectiveness(t *testing.T) {
	eng := newEngineForTest()
	matched := eng.Match(0.9, map[string]float64{FactorTransportScore: 2})
	for i := 1; i < len(matched); i++ {
		if matched[i].Effectiveness > matched[i-1].Effectiveness {
			t.Fatalf("matches not sorted by descending effectiveness: %v", matchedIDs(matched))
		}
	}
}

func TestInterventionROI(t *testing.T) {
	eng := newEngineForTest()
	iv := model.InterventionType{ID: "x", Effectiveness: 0.3, Cost: 5}
	roi := eng.InterventionROI(0.8, iv, 150)
	ratio, ok := roi.Ratio()
	if !ok {
		t.Fatalf("expected finite ROI")
	}
	// 0.8*0.3*150 = 36 expected value, (36-5)/5 = 6.2
	if !almostEqual(ratio, 6.2) {
		t.Fatalf("ROI ratio = %v, want 6.2", ratio)
	}
}

func TestInterventionROIZeroCost(t *testing.T) {
	eng := newEngineForTest()
	roi := eng.InterventionROI(0.8, model.InterventionType{ID: "free", Effectiveness: 0.1}, 150)
	if roi.Defined() {
		t.Fatalf("zero-cost ROI should be undefined")
	}
	if !roi.Positive() {
		t.Fatalf("undefined ROI should count as positive")
	}
}

func TestOptimizeHighRiskFitsBudget(t *testing.T) {
	eng := newEngineForTest()
	decision, err := eng.Optimize(0.8, map[string]float64{FactorTransportScore: 3}, model.CappedBudget(20), 150)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	want := []string{catalog.StandardReminder, catalog.PhoneCall, catalog.TransportationAssist}
	if len(decision.Selected) != len(want) {
		t.Fatalf("selected %v, want %v", decision.SelectedIDs(), want)
	}
	for i, id := range want {
		if decision.Selected[i].ID != id {
			t.Fatalf("selected %v, want %v", decision.SelectedIDs(), want)
		}
	}
	if !almostEqual(decision.TotalCost, 17.5) {
		t.Fatalf("total cost = %v, want 17.5", decision.TotalCost)
	}
	if !almostEqual(decision.BaselineAttendance, 0.2) {
		t.Fatalf("baseline attendance = %v, want 0.2", decision.BaselineAttendance)
	}
	// 0.8*0.10, then 0.72*0.30, then 0.504*0.40
	if !almostEqual(decision.CombinedEffectiveness, 0.4976) {
		t.Fatalf("combined effectiveness = %v, want 0.4976", decision.CombinedEffectiveness)
	}
	if !almostEqual(decision.NewAttendance, 0.6976) {
		t.Fatalf("new attendance = %v, want 0.6976", decision.NewAttendance)
	}
	ratio, ok := decision.ROI.Ratio()
	if !ok {
		t.Fatalf("decision ROI should be finite")
	}
	wantROI := (0.4976*150 - 17.5) / 17.5
	if !almostEqual(ratio, wantROI) {
		t.Fatalf("decision ROI = %v, want %v", ratio, wantROI)
	}
}

func TestOptimizeGreedyStopsAtFirstRejection(t *testing.T) {
	eng := newEngineForTest()
	// risk 0.9 with transport need matches four interventions; the first
	// three cost 17.5 and the incentive at 10 no longer fits the budget
	decision, err := eng.Optimize(0.9, map[string]float64{FactorTransportScore: 2}, model.CappedBudget(20), 150)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	for _, sel := range decision.Selected {
		if sel.ID == catalog.IncentiveOffer {
			t.Fatalf("incentive selected past the budget")
		}
	}
	if !almostEqual(decision.TotalCost, 17.5) {
		t.Fatalf("total cost = %v, want 17.5", decision.TotalCost)
	}
}

func TestOptimizeLowRisk(t *testing.T) {
	eng := newEngineForTest()
	decision, err := eng.Optimize(0.2, nil, model.CappedBudget(20), 150)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(decision.Selected) != 1 || decision.Selected[0].ID != catalog.StandardReminder {
		t.Fatalf("selected %v, want only the standard reminder", decision.SelectedIDs())
	}
	if !almostEqual(decision.TotalCost, 0.5) {
		t.Fatalf("total cost = %v, want 0.5", decision.TotalCost)
	}
}

func TestOptimizeZeroBudget(t *testing.T) {
	eng := newEngineForTest()
	decision, err := eng.Optimize(0.8, nil, model.CappedBudget(0), 150)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(decision.Selected) != 0 {
		t.Fatalf("selected %v with a zero budget", decision.SelectedIDs())
	}
	if decision.TotalCost != 0 {
		t.Fatalf("total cost = %v, want 0", decision.TotalCost)
	}
	if decision.ROI.Defined() {
		t.Fatalf("ROI should be undefined when nothing is selected")
	}
	if !almostEqual(decision.NewAttendance, decision.BaselineAttendance) {
		t.Fatalf("attendance changed with no interventions")
	}
}

func TestOptimizeNegativeBudget(t *testing.T) {
	eng := newEngineForTest()
	if _, err := eng.Optimize(0.8, nil, model.CappedBudget(-1), 150); err != ErrInvalidBudget {
		t.Fatalf("err = %v, want ErrInvalidBudget", err)
	}
}

func TestOptimizeUnlimitedBudget(t *testing.T) {
	eng := newEngineForTest()
	decision, err := eng.Optimize(0.9, map[string]float64{FactorTransportScore: 2}, model.UnlimitedBudget(), 150)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	// all four matches have positive ROI at this risk and value
	if len(decision.Selected) != 4 {
		t.Fatalf("selected %v, want all four matches", decision.SelectedIDs())
	}
	if decision.NewAttendance >= 1 {
		t.Fatalf("new attendance = %v, must stay below 1", decision.NewAttendance)
	}
}

func TestOptimizeSkipsNegativeROI(t *testing.T) {
	eng := newEngineForTest()
	// at a $1 appointment every intervention costs more than it returns
	decision, err := eng.Optimize(0.8, nil, model.UnlimitedBudget(), 1)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(decision.Selected) != 0 {
		t.Fatalf("selected %v, want none at negligible appointment value", decision.SelectedIDs())
	}
}

func TestOptimizeZeroCostRanksFirst(t *testing.T) {
	cat, err := catalog.New([]model.InterventionType{
		{ID: catalog.StandardReminder, Description: "reminder", Effectiveness: 0.10, Cost: 0},
		{ID: catalog.PhoneCall, Description: "call", Effectiveness: 0.30, Cost: 5},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	eng := NewEngine(config.DefaultConfig(), cat, nil, nil, nil, nil)
	decision, err := eng.Optimize(0.8, nil, model.CappedBudget(20), 150)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(decision.Selected) == 0 || decision.Selected[0].ID != catalog.StandardReminder {
		t.Fatalf("selected %v, want the free intervention first", decision.SelectedIDs())
	}
	if decision.Selected[0].ROI.Defined() {
		t.Fatalf("free intervention should carry the undefined ROI")
	}
}
