package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"vitalsched/internal/config"
	"vitalsched/internal/model"
)

type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveDecision(ctx context.Context, decision model.InterventionDecision) error
	SaveSweep(ctx context.Context, sweepID string, rows []model.ThresholdResult) error
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func encodeJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

// roiColumn maps an ROI onto a nullable numeric column.
func roiColumn(r model.ROI) any {
	if v, ok := r.Ratio(); ok {
		return v
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
