package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"vitalsched/internal/catalog"
	"vitalsched/internal/config"
	"vitalsched/internal/engine"
	"vitalsched/internal/finance"
	"vitalsched/internal/model"
	"vitalsched/internal/normalize"
	"vitalsched/internal/report"
	"vitalsched/internal/results"
)

// DecisionEngine is the slice of the engine the API needs.
type DecisionEngine interface {
	DecideWith(ctx context.Context, rec model.RiskRecord, budget model.Budget, appointmentValue float64) (model.InterventionDecision, error)
	Sweep(ctx context.Context, records []model.RiskRecord, thresholds []float64, budget model.Budget, appointmentValue float64) ([]model.ThresholdResult, error)
	Reset()
	UpdateConfig(cfg *config.Config)
}

type Server struct {
	cfg       *config.Manager
	catalog   *catalog.Catalog
	decisions *results.DecisionStore
	sweeps    *results.SweepStore
	engine    DecisionEngine
	logger    *slog.Logger
	version   string
}

type statusResponse struct {
	Status      string              `json:"status"`
	Time        string              `json:"time"`
	Version     string              `json:"version"`
	ConfigPath  string              `json:"config_path"`
	CatalogSize int                 `json:"catalog_size"`
	Economics   config.EngineConfig `json:"economics"`
	Ingest      ingestStatus        `json:"ingest"`
	API         apiStatus           `json:"api"`
}

type ingestStatus struct {
	REST  bool `json:"rest"`
	Kafka bool `json:"kafka"`
}

type apiStatus struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

func Start(ctx context.Context, cfg *config.Manager, cat *catalog.Catalog, decisionStore *results.DecisionStore, sweepStore *results.SweepStore, eng DecisionEngine, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:       cfg,
		catalog:   cat,
		decisions: decisionStore,
		sweeps:    sweepStore,
		engine:    eng,
		logger:    logger,
		version:   version,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/catalog", server.handleCatalog)
	mux.HandleFunc("/decide", server.handleDecide)
	mux.HandleFunc("/sweep", server.handleSweep)
	mux.HandleFunc("/decisions", server.handleDecisions)
	mux.HandleFunc("/report", server.handleReport)
	mux.HandleFunc("/finance/projection", server.handleFinanceProjection)
	mux.HandleFunc("/config/economics", server.handleEconomics)
	mux.HandleFunc("/admin/clear", server.handleClear)
	mux.HandleFunc("/admin/restart", server.handleRestart)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	resp := statusResponse{
		Status:      "ok",
		Time:        time.Now().UTC().Format(time.RFC3339Nano),
		Version:     s.version,
		ConfigPath:  s.cfg.Path(),
		CatalogSize: s.catalog.Len(),
		Economics:   cfg.Engine,
		Ingest: ingestStatus{
			REST:  cfg.Ingest.REST.Enabled,
			Kafka: cfg.Ingest.Kafka.Enabled,
		},
		API: apiStatus{Enabled: cfg.API.Enabled, Addr: cfg.API.Addr},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries := s.catalog.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"interventions": entries,
		"count":         len(entries),
	})
}

type decideRequest struct {
	RecordID         string             `json:"record_id"`
	RiskScore        float64            `json:"risk_score"`
	RiskFactors      map[string]float64 `json:"risk_factors"`
	Budget           *float64           `json:"budget"`
	UnlimitedBudget  bool               `json:"unlimited_budget"`
	AppointmentValue *float64           `json:"appointment_value"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var req decideRequest
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	cfg := s.cfg.Get()
	rec := normalize.Record(model.RiskRecord{
		ID:        req.RecordID,
		RiskScore: req.RiskScore,
		Factors:   req.RiskFactors,
	})
	budget := resolveBudget(req.Budget, req.UnlimitedBudget, cfg.Engine.PerRecordBudget)
	value := cfg.Engine.AppointmentValue
	if req.AppointmentValue != nil {
		value = *req.AppointmentValue
	}
	decision, err := s.engine.DecideWith(r.Context(), rec, budget, value)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidBudget) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

type sweepRequest struct {
	Records          []model.RiskRecord `json:"records"`
	Thresholds       []float64          `json:"thresholds"`
	Budget           *float64           `json:"budget"`
	UnlimitedBudget  bool               `json:"unlimited_budget"`
	AppointmentValue *float64           `json:"appointment_value"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 8<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var req sweepRequest
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(req.Records) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "records required"})
		return
	}
	cfg := s.cfg.Get()
	budget := resolveBudget(req.Budget, req.UnlimitedBudget, cfg.Engine.PerRecordBudget)
	value := cfg.Engine.AppointmentValue
	if req.AppointmentValue != nil {
		value = *req.AppointmentValue
	}
	rows, err := s.engine.Sweep(r.Context(), normalize.Records(req.Records), req.Thresholds, budget, value)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidBudget) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": rows,
		"count":   len(rows),
	})
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	sinceStr := r.URL.Query().Get("since")
	var list []model.InterventionDecision
	if sinceStr != "" {
		ts, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		list = s.decisions.Since(ts)
	} else {
		list = s.decisions.List(limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"decisions": list,
		"count":     len(list),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	summary := report.Summarize(s.decisions.List(0))
	writeJSON(w, http.StatusOK, summary)
}

type projectionRequest struct {
	Appointments       int     `json:"appointments"`
	NoShowReduction    float64 `json:"no_show_reduction"`
	ImplementationCost float64 `json:"implementation_cost"`
	AnnualCost         float64 `json:"annual_cost"`
	Years              int     `json:"years"`
}

func (s *Server) handleFinanceProjection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var req projectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.Appointments <= 0 || req.NoShowReduction < 0 || req.NoShowReduction > 1 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "appointments must be positive and no_show_reduction in [0,1]"})
		return
	}
	cfg := s.cfg.Get()
	params := finance.Params{
		AppointmentValue:   cfg.Engine.AppointmentValue,
		CostPerNoShow:      cfg.Finance.CostPerNoShow,
		ProviderIdleCost:   cfg.Finance.ProviderIdleCost,
		BaselineNoShowRate: cfg.Finance.BaselineNoShowRate,
		DiscountRate:       cfg.Finance.DiscountRate,
	}
	years := req.Years
	if years <= 0 {
		years = cfg.Finance.DefaultYears
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"baseline":   params.BaselineCosts(req.Appointments),
		"improved":   params.ImprovedScenario(req.Appointments, req.NoShowReduction, req.ImplementationCost, req.AnnualCost),
		"projection": params.Project(req.Appointments, req.NoShowReduction, req.ImplementationCost, req.AnnualCost, years),
	})
}

func (s *Server) handleEconomics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg := s.cfg.Get()
		writeJSON(w, http.StatusOK, map[string]any{
			"economics": cfg.Engine,
			"finance":   cfg.Finance,
		})
	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var eng config.EngineConfig
		if err := json.Unmarshal(body, &eng); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		current := s.cfg.Get()
		next := *current
		next.Engine = eng
		if err := config.Validate(&next); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		if err := s.cfg.Update(&next); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if s.engine != nil {
			s.engine.UpdateConfig(&next)
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	var req struct {
		Target string `json:"target"`
	}
	_ = json.Unmarshal(body, &req)
	target := req.Target
	if target == "" {
		target = "all"
	}
	switch target {
	case "all":
		if s.decisions != nil {
			s.decisions.Clear()
		}
		if s.sweeps != nil {
			s.sweeps.Clear()
		}
	case "decisions":
		if s.decisions != nil {
			s.decisions.Clear()
		}
	case "sweeps":
		if s.sweeps != nil {
			s.sweeps.Clear()
		}
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.engine != nil {
		s.engine.Reset()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func resolveBudget(amount *float64, unlimited bool, fallback float64) model.Budget {
	if unlimited {
		return model.UnlimitedBudget()
	}
	if amount != nil {
		return model.CappedBudget(*amount)
	}
	return model.CappedBudget(fallback)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
