package ingest

import (
	"testing"
)

func TestParseRecordSingle(t *testing.T) {
	data := []byte(`{"record_id":"p-100","risk_score":0.82,"risk_factors":{"Transport_Score":3,"lead_days":14}}`)
	rec, err := ParseRecord(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.ID != "p-100" {
		t.Fatalf("id = %q", rec.ID)
	}
	if rec.RiskScore != 0.82 {
		t.Fatalf("score = %v", rec.RiskScore)
	}
	// factor keys are lowercased at the boundary
	if v, ok := rec.Factors["transport_score"]; !ok || v != 3 {
		t.Fatalf("factors = %v", rec.Factors)
	}
}

func TestParseRecordMissingScore(t *testing.T) {
	if _, err := ParseRecord([]byte(`{"record_id":"p-1"}`)); err == nil {
		t.Fatalf("expected error for missing risk_score")
	}
}

func TestParseRecordClampsScore(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"risk_score":1.7}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.RiskScore != 1 {
		t.Fatalf("score = %v, want clamped to 1", rec.RiskScore)
	}
	rec, err = ParseRecord([]byte(`{"risk_score":-0.4}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.RiskScore != 0 {
		t.Fatalf("score = %v, want clamped to 0", rec.RiskScore)
	}
}

func TestParseRecordsArray(t *testing.T) {
	data := []byte(`[
		{"record_id":"a","risk_score":0.3},
		{"record_id":"b"},
		{"record_id":"c","risk_score":0.9}
	]`)
	records, failed, err := ParseRecords(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	if len(records) != 2 || records[0].ID != "a" || records[1].ID != "c" {
		t.Fatalf("records = %v", records)
	}
}

func TestParseRecordsSingleObject(t *testing.T) {
	records, failed, err := ParseRecords([]byte(`  {"record_id":"solo","risk_score":0.5}  `))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if failed != 0 || len(records) != 1 || records[0].ID != "solo" {
		t.Fatalf("records=%v failed=%d", records, failed)
	}
}

func TestParseRecordsEmpty(t *testing.T) {
	if _, _, err := ParseRecords([]byte("  \n ")); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}
