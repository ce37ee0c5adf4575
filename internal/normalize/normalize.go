package normalize

import (
	"math"
	"strings"

	"vitalsched/internal/model"
)

// Record sanitizes a risk record at the caller boundary. The matcher
// applies its thresholds literally and never validates the score, so the
// score is clamped here, and factor values that would poison comparisons
// (NaN, infinities) are dropped so the documented default applies instead.
func Record(rec model.RiskRecord) model.RiskRecord {
	rec.ID = strings.TrimSpace(rec.ID)
	rec.RiskScore = ClampScore(rec.RiskScore)
	rec.Factors = Factors(rec.Factors)
	return rec
}

// ClampScore forces a risk score into [0,1]. NaN collapses to 0.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Factors returns a cleaned copy of a factor map: keys trimmed and
// lowercased, non-finite values removed. Nil in, nil out.
func Factors(factors map[string]float64) map[string]float64 {
	if len(factors) == 0 {
		return nil
	}
	out := make(map[string]float64, len(factors))
	for key, val := range factors {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Records sanitizes a batch in place-order, returning a new slice.
func Records(records []model.RiskRecord) []model.RiskRecord {
	out := make([]model.RiskRecord, len(records))
	for i, rec := range records {
		out[i] = Record(rec)
	}
	return out
}
