package engine

import (
	"sort"

	"vitalsched/internal/catalog"
	"vitalsched/internal/model"
)

// FactorTransportScore is the risk factor consulted by the transportation
// rule. Scores run 0-10; below transportNeedCutoff the subject is assumed
// to have trouble getting to appointments.
const FactorTransportScore = "transport_score"

const transportNeedCutoff = 5.0

type matchRule struct {
	id    string
	match func(rec model.RiskRecord) bool
}

// matchRules is the ordered eligibility table. Rules are evaluated in
// sequence and accumulated; duplicates by id keep the first occurrence.
// Both the 0.5 and 0.7 tiers request the phone call, dedupe keeps one.
func matchRules() []matchRule {
	return []matchRule{
		{catalog.StandardReminder, func(model.RiskRecord) bool { return true }},
		{catalog.PersonalizedSMS, func(rec model.RiskRecord) bool {
			return rec.RiskScore >= 0.3 && rec.RiskScore < 0.7
		}},
		{catalog.PhoneCall, func(rec model.RiskRecord) bool { return rec.RiskScore >= 0.5 }},
		{catalog.PhoneCall, func(rec model.RiskRecord) bool { return rec.RiskScore >= 0.7 }},
		{catalog.TransportationAssist, func(rec model.RiskRecord) bool {
			return rec.RiskScore >= 0.7 && rec.Factor(FactorTransportScore) < transportNeedCutoff
		}},
		{catalog.IncentiveOffer, func(rec model.RiskRecord) bool { return rec.RiskScore >= 0.85 }},
	}
}

// Match returns the interventions eligible for a record, sorted by
// descending effectiveness (stable, ties keep catalogue order). It is a
// pure function of its arguments: out-of-range scores are compared
// literally, clamping is the caller's job, and missing factors take the
// documented default.
func (e *Engine) Match(riskScore float64, riskFactors map[string]float64) []model.InterventionType {
	return e.matchRecord(model.RiskRecord{RiskScore: riskScore, Factors: riskFactors})
}

func (e *Engine) matchRecord(rec model.RiskRecord) []model.InterventionType {
	seen := make(map[string]bool, len(e.rules))
	matched := make([]model.InterventionType, 0, e.catalog.Len())
	for _, rule := range e.rules {
		if seen[rule.id] || !rule.match(rec) {
			continue
		}
		iv, ok := e.catalog.Get(rule.id)
		if !ok {
			// rule references an intervention this catalogue does not carry
			continue
		}
		seen[rule.id] = true
		matched = append(matched, iv)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Effectiveness > matched[j].Effectiveness
	})
	return matched
}
