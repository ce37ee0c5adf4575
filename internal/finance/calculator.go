// Package finance models the program-level economics of a no-show
// reduction effort: what the current no-show rate costs, what a given
// reduction is worth, and how the investment pays back over time.
package finance

import "math"

type Params struct {
	AppointmentValue   float64 `json:"appointment_value"`
	CostPerNoShow      float64 `json:"cost_per_no_show"`
	ProviderIdleCost   float64 `json:"provider_idle_cost"`
	BaselineNoShowRate float64 `json:"baseline_no_show_rate"`
	DiscountRate       float64 `json:"discount_rate"`
}

func DefaultParams() Params {
	return Params{
		AppointmentValue:   150,
		CostPerNoShow:      50,
		ProviderIdleCost:   100,
		BaselineNoShowRate: 0.25,
		DiscountRate:       0.07,
	}
}

// Baseline is the cost breakdown of an appointment volume at the current
// no-show rate.
type Baseline struct {
	TotalAppointments int     `json:"total_appointments"`
	ExpectedNoShows   float64 `json:"expected_no_shows"`
	ExpectedAttended  float64 `json:"expected_attended"`
	Revenue           float64 `json:"revenue"`
	NoShowCosts       float64 `json:"no_show_costs"`
	IdleCosts         float64 `json:"idle_costs"`
	NetValue          float64 `json:"net_value"`
}

func (p Params) BaselineCosts(appointments int) Baseline {
	n := float64(appointments)
	noShows := n * p.BaselineNoShowRate
	attended := n - noShows
	revenue := attended * p.AppointmentValue
	noShowCosts := noShows * p.CostPerNoShow
	idleCosts := noShows * p.ProviderIdleCost
	return Baseline{
		TotalAppointments: appointments,
		ExpectedNoShows:   noShows,
		ExpectedAttended:  attended,
		Revenue:           revenue,
		NoShowCosts:       noShowCosts,
		IdleCosts:         idleCosts,
		NetValue:          revenue - noShowCosts - idleCosts,
	}
}

// Scenario is the same breakdown after a proportional no-show reduction,
// net of the program's annual running cost.
type Scenario struct {
	TotalAppointments      int     `json:"total_appointments"`
	NewNoShowRate          float64 `json:"new_no_show_rate"`
	ExpectedNoShows        float64 `json:"expected_no_shows"`
	ExpectedAttended       float64 `json:"expected_attended"`
	Revenue                float64 `json:"revenue"`
	NoShowCosts            float64 `json:"no_show_costs"`
	IdleCosts              float64 `json:"idle_costs"`
	AdditionalAppointments float64 `json:"additional_appointments"`
	AdditionalRevenue      float64 `json:"additional_revenue"`
	ReducedCosts           float64 `json:"reduced_costs"`
	ImplementationCost     float64 `json:"implementation_cost"`
	AnnualCost             float64 `json:"annual_cost"`
	NetValue               float64 `json:"net_value"`
}

func (p Params) ImprovedScenario(appointments int, noShowReduction, implementationCost, annualCost float64) Scenario {
	baseline := p.BaselineCosts(appointments)

	n := float64(appointments)
	newRate := p.BaselineNoShowRate * (1 - noShowReduction)
	noShows := n * newRate
	attended := n - noShows
	revenue := attended * p.AppointmentValue
	noShowCosts := noShows * p.CostPerNoShow
	idleCosts := noShows * p.ProviderIdleCost

	return Scenario{
		TotalAppointments:      appointments,
		NewNoShowRate:          newRate,
		ExpectedNoShows:        noShows,
		ExpectedAttended:       attended,
		Revenue:                revenue,
		NoShowCosts:            noShowCosts,
		IdleCosts:              idleCosts,
		AdditionalAppointments: baseline.ExpectedNoShows - noShows,
		AdditionalRevenue:      (baseline.ExpectedNoShows - noShows) * p.AppointmentValue,
		ReducedCosts:           (baseline.NoShowCosts - noShowCosts) + (baseline.IdleCosts - idleCosts),
		ImplementationCost:     implementationCost,
		AnnualCost:             annualCost,
		NetValue:               revenue - noShowCosts - idleCosts - annualCost,
	}
}

// Projection is the multi-year view: cashflows, net present value at the
// configured discount rate, payback period and program ROI. HasPayback is
// false when the annual benefit never recovers the implementation cost.
type Projection struct {
	AnnualBenefit      float64   `json:"annual_benefit"`
	YearlyCashflow     []float64 `json:"yearly_cashflow"`
	CumulativeCashflow []float64 `json:"cumulative_cashflow"`
	NPV                float64   `json:"npv"`
	PaybackYears       float64   `json:"payback_years"`
	HasPayback         bool      `json:"has_payback"`
	ROIPercent         float64   `json:"roi_percent"`
	TotalInvestment    float64   `json:"total_investment"`
	TotalBenefit       float64   `json:"total_benefit"`
}

func (p Params) Project(appointments int, noShowReduction, implementationCost, annualCost float64, years int) Projection {
	if years <= 0 {
		years = 1
	}
	baseline := p.BaselineCosts(appointments)
	improved := p.ImprovedScenario(appointments, noShowReduction, implementationCost, annualCost)
	annualBenefit := improved.NetValue - baseline.NetValue

	yearly := make([]float64, 0, years+1)
	yearly = append(yearly, -implementationCost)
	for i := 0; i < years; i++ {
		yearly = append(yearly, annualBenefit)
	}
	cumulative := make([]float64, 0, len(yearly))
	running := 0.0
	for _, cf := range yearly {
		running += cf
		cumulative = append(cumulative, running)
	}

	npv := -implementationCost
	for i := 0; i < years; i++ {
		npv += annualBenefit / math.Pow(1+p.DiscountRate, float64(i+1))
	}

	proj := Projection{
		AnnualBenefit:      annualBenefit,
		YearlyCashflow:     yearly,
		CumulativeCashflow: cumulative,
		NPV:                npv,
		TotalInvestment:    implementationCost + annualCost*float64(years),
		TotalBenefit:       annualBenefit * float64(years),
	}
	if annualBenefit > 0 {
		proj.PaybackYears = implementationCost / annualBenefit
		proj.HasPayback = true
	}
	if proj.TotalInvestment > 0 {
		proj.ROIPercent = (proj.TotalBenefit - proj.TotalInvestment) / proj.TotalInvestment * 100
	}
	return proj
}
