package finance

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestBaselineCosts(t *testing.T) {
	p := DefaultParams()
	b := p.BaselineCosts(1000)
	if !almostEqual(b.ExpectedNoShows, 250) {
		t.Fatalf("no-shows = %v, want 250", b.ExpectedNoShows)
	}
	if !almostEqual(b.Revenue, 750*150) {
		t.Fatalf("revenue = %v", b.Revenue)
	}
	if !almostEqual(b.NetValue, 750*150-250*50-250*100) {
		t.Fatalf("net value = %v", b.NetValue)
	}
}

func TestImprovedScenario(t *testing.T) {
	p := DefaultParams()
	s := p.ImprovedScenario(1000, 0.3, 50000, 12000)
	if !almostEqual(s.NewNoShowRate, 0.175) {
		t.Fatalf("new rate = %v, want 0.175", s.NewNoShowRate)
	}
	if !almostEqual(s.AdditionalAppointments, 75) {
		t.Fatalf("additional appointments = %v, want 75", s.AdditionalAppointments)
	}
	if !almostEqual(s.AdditionalRevenue, 75*150) {
		t.Fatalf("additional revenue = %v", s.AdditionalRevenue)
	}
	wantNet := 825*150.0 - 175*50.0 - 175*100.0 - 12000
	if !almostEqual(s.NetValue, wantNet) {
		t.Fatalf("net value = %v, want %v", s.NetValue, wantNet)
	}
}

func TestProjectPayback(t *testing.T) {
	p := DefaultParams()
	proj := p.Project(1000, 0.3, 50000, 12000, 5)
	if !proj.HasPayback {
		t.Fatalf("expected payback with a positive annual benefit")
	}
	if len(proj.YearlyCashflow) != 6 {
		t.Fatalf("yearly cashflow has %d entries, want 6", len(proj.YearlyCashflow))
	}
	if !almostEqual(proj.YearlyCashflow[0], -50000) {
		t.Fatalf("year zero = %v, want -50000", proj.YearlyCashflow[0])
	}
	if !almostEqual(proj.PaybackYears, 50000/proj.AnnualBenefit) {
		t.Fatalf("payback years = %v", proj.PaybackYears)
	}
	last := proj.CumulativeCashflow[len(proj.CumulativeCashflow)-1]
	if !almostEqual(last, -50000+proj.AnnualBenefit*5) {
		t.Fatalf("cumulative end = %v", last)
	}
	if proj.NPV >= proj.AnnualBenefit*5-50000 {
		t.Fatalf("NPV %v not discounted below nominal total", proj.NPV)
	}
}

func TestProjectNoBenefitNoPayback(t *testing.T) {
	p := DefaultParams()
	// zero reduction yields no benefit; the annual cost makes it negative
	proj := p.Project(1000, 0, 10000, 5000, 3)
	if proj.HasPayback {
		t.Fatalf("payback reported with non-positive annual benefit")
	}
	if proj.PaybackYears != 0 {
		t.Fatalf("payback years = %v, want 0", proj.PaybackYears)
	}
	if proj.ROIPercent >= 0 {
		t.Fatalf("roi percent = %v, want negative", proj.ROIPercent)
	}
}

func TestProjectZeroInvestment(t *testing.T) {
	p := DefaultParams()
	proj := p.Project(1000, 0.2, 0, 0, 2)
	if proj.ROIPercent != 0 {
		t.Fatalf("roi percent = %v, want 0 when nothing is invested", proj.ROIPercent)
	}
}
