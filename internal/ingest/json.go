package ingest

import (
	"encoding/json"
	"errors"

	"vitalsched/internal/model"
	"vitalsched/internal/normalize"
)

type rawRecord struct {
	RecordID    string             `json:"record_id"`
	RiskScore   *float64           `json:"risk_score"`
	RiskFactors map[string]float64 `json:"risk_factors"`
}

// ParseRecord decodes one scored record as emitted by the prediction
// layer. The score is clamped and factors scrubbed here: transports are
// the caller side of the engine's contract.
func ParseRecord(data []byte) (model.RiskRecord, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.RiskRecord{}, err
	}
	return fromRaw(raw)
}

// ParseRecords accepts a single JSON object or an array of them.
func ParseRecords(data []byte) ([]model.RiskRecord, int, error) {
	trim := bytesTrim(data)
	if len(trim) == 0 {
		return nil, 0, errors.New("empty payload")
	}
	if trim[0] != '[' {
		rec, err := ParseRecord(trim)
		if err != nil {
			return nil, 1, err
		}
		return []model.RiskRecord{rec}, 0, nil
	}
	var raws []rawRecord
	if err := json.Unmarshal(trim, &raws); err != nil {
		return nil, 0, err
	}
	out := make([]model.RiskRecord, 0, len(raws))
	failed := 0
	for _, raw := range raws {
		rec, err := fromRaw(raw)
		if err != nil {
			failed++
			continue
		}
		out = append(out, rec)
	}
	return out, failed, nil
}

func fromRaw(raw rawRecord) (model.RiskRecord, error) {
	if raw.RiskScore == nil {
		return model.RiskRecord{}, errors.New("record missing risk_score")
	}
	return normalize.Record(model.RiskRecord{
		ID:        raw.RecordID,
		RiskScore: *raw.RiskScore,
		Factors:   raw.RiskFactors,
	}), nil
}

func bytesTrim(b []byte) []byte {
	start := 0
	for start < len(b) && (b[start] == ' ' || b[start] == '\n' || b[start] == '\r' || b[start] == '\t') {
		start++
	}
	end := len(b)
	for end > start && (b[end-1] == ' ' || b[end-1] == '\n' || b[end-1] == '\r' || b[end-1] == '\t') {
		end--
	}
	return b[start:end]
}
