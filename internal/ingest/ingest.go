package ingest

import (
	"context"
	"log/slog"

	"vitalsched/internal/model"
)

// SendNonBlocking drops the record if the channel is full rather than
// stalling the transport that delivered it.
func SendNonBlocking(ctx context.Context, out chan<- model.RiskRecord, rec model.RiskRecord, logger *slog.Logger) bool {
	select {
	case out <- rec:
		return true
	case <-ctx.Done():
		return false
	default:
		if logger != nil {
			logger.Warn("record channel full, dropping record", "record_id", rec.ID, "risk_score", rec.RiskScore)
		}
		return false
	}
}
