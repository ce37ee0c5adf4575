package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"vitalsched/internal/catalog"
	"vitalsched/internal/config"
	"vitalsched/internal/model"
	"vitalsched/internal/results"
	"vitalsched/internal/storage"
)

// Engine computes intervention decisions over a fixed catalogue. Every
// evaluation is a pure function of its inputs and the catalogue; the only
// mutable pieces are the swappable economics config and the result stores,
// so concurrent calls need no coordination.
type Engine struct {
	logger    *slog.Logger
	catalog   *catalog.Catalog
	cfg       atomic.Value
	rules     []matchRule
	decisions *results.DecisionStore
	sweeps    *results.SweepStore
	store     storage.Store
}

func NewEngine(cfg *config.Config, cat *catalog.Catalog, logger *slog.Logger, decisionStore *results.DecisionStore, sweepStore *results.SweepStore, store storage.Store) *Engine {
	if cat == nil {
		cat = catalog.Default()
	}
	e := &Engine{
		logger:    logger,
		catalog:   cat,
		rules:     matchRules(),
		decisions: decisionStore,
		sweeps:    sweepStore,
		store:     store,
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e.cfg.Store(cfg)
	return e
}

// UpdateConfig swaps the economics configuration. The catalogue is fixed
// at construction; reproducibility of past decisions depends on it.
func (e *Engine) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	e.cfg.Store(cfg)
}

func (e *Engine) config() *config.Config {
	if v := e.cfg.Load(); v != nil {
		return v.(*config.Config)
	}
	return config.DefaultConfig()
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Start consumes scored records from the ingest pipeline until the
// context is cancelled.
func (e *Engine) Start(ctx context.Context, in <-chan model.RiskRecord) {
	go func() {
		for {
			select {
			case rec := <-in:
				e.Decide(ctx, rec)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Decide optimizes one record under the configured per-record budget and
// appointment value, then retains and persists the decision.
func (e *Engine) Decide(ctx context.Context, rec model.RiskRecord) model.InterventionDecision {
	cfg := e.config()
	decision, err := e.optimizeRecord(rec, model.CappedBudget(cfg.Engine.PerRecordBudget), cfg.Engine.AppointmentValue)
	if err != nil {
		// per_record_budget is validated non-negative at config load
		panic("engine: invalid configured budget: " + err.Error())
	}
	e.record(ctx, decision)
	return decision
}

// DecideWith is Decide with explicit budget and appointment value.
func (e *Engine) DecideWith(ctx context.Context, rec model.RiskRecord, budget model.Budget, appointmentValue float64) (model.InterventionDecision, error) {
	decision, err := e.optimizeRecord(rec, budget, appointmentValue)
	if err != nil {
		return model.InterventionDecision{}, err
	}
	e.record(ctx, decision)
	return decision, nil
}

func (e *Engine) record(ctx context.Context, decision model.InterventionDecision) {
	if e.decisions != nil {
		e.decisions.Add(decision)
	}
	if e.logger != nil {
		e.logger.Info("intervention decision",
			"record_id", decision.RecordID,
			"risk_score", decision.RiskScore,
			"selected", decision.SelectedIDs(),
			"total_cost", decision.TotalCost,
		)
	}
	if e.store != nil {
		_ = e.store.SaveDecision(ctx, decision)
	}
}

// Reset clears retained results. The catalogue and config are untouched.
func (e *Engine) Reset() {
	if e.decisions != nil {
		e.decisions.Clear()
	}
	if e.sweeps != nil {
		e.sweeps.Clear()
	}
}
