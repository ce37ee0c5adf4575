package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"vitalsched/internal/model"
)

type Config struct {
	LogLevel string                   `json:"log_level" yaml:"log_level"`
	Catalog  []model.InterventionType `json:"catalog" yaml:"catalog"`
	Engine   EngineConfig             `json:"engine" yaml:"engine"`
	Ingest   IngestConfig             `json:"ingest" yaml:"ingest"`
	API      APIConfig                `json:"api" yaml:"api"`
	Storage  StorageConfig            `json:"storage" yaml:"storage"`
	Results  ResultsConfig            `json:"results" yaml:"results"`
	Finance  FinanceConfig            `json:"finance" yaml:"finance"`
}

// EngineConfig carries the decision economics. BaselineRiskCutoff is the
// fixed reference used for baseline adverse counts during sweeps; it does
// not track the sweep threshold.
type EngineConfig struct {
	AppointmentValue   float64   `json:"appointment_value" yaml:"appointment_value"`
	PerRecordBudget    float64   `json:"per_record_budget" yaml:"per_record_budget"`
	BaselineRiskCutoff float64   `json:"baseline_risk_cutoff" yaml:"baseline_risk_cutoff"`
	Thresholds         []float64 `json:"thresholds" yaml:"thresholds"`
	SweepWorkers       int       `json:"sweep_workers" yaml:"sweep_workers"`
}

type IngestConfig struct {
	ChannelBuffer int         `json:"channel_buffer" yaml:"channel_buffer"`
	REST          RESTConfig  `json:"rest" yaml:"rest"`
	Kafka         KafkaConfig `json:"kafka" yaml:"kafka"`
}

type RESTConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
	GroupID string   `json:"group_id" yaml:"group_id"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type ResultsConfig struct {
	DecisionLimit int `json:"decision_limit" yaml:"decision_limit"`
	SweepLimit    int `json:"sweep_limit" yaml:"sweep_limit"`
}

type FinanceConfig struct {
	CostPerNoShow      float64 `json:"cost_per_no_show" yaml:"cost_per_no_show"`
	ProviderIdleCost   float64 `json:"provider_idle_cost" yaml:"provider_idle_cost"`
	BaselineNoShowRate float64 `json:"baseline_no_show_rate" yaml:"baseline_no_show_rate"`
	DiscountRate       float64 `json:"discount_rate" yaml:"discount_rate"`
	DefaultYears       int     `json:"default_years" yaml:"default_years"`
}

func DefaultThresholds() []float64 {
	return []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Engine: EngineConfig{
			AppointmentValue:   150,
			PerRecordBudget:    20,
			BaselineRiskCutoff: 0.5,
			Thresholds:         DefaultThresholds(),
			SweepWorkers:       4,
		},
		Ingest: IngestConfig{
			ChannelBuffer: 10000,
			REST:          RESTConfig{Enabled: true, Addr: ":8080"},
			Kafka:         KafkaConfig{Enabled: false},
		},
		API:     APIConfig{Enabled: true, Addr: ":8081"},
		Storage: StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:vitalsched.db?_pragma=busy_timeout(5000)"},
		Results: ResultsConfig{DecisionLimit: 5000, SweepLimit: 100},
		Finance: FinanceConfig{
			CostPerNoShow:      50,
			ProviderIdleCost:   100,
			BaselineNoShowRate: 0.25,
			DiscountRate:       0.07,
			DefaultYears:       5,
		},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.AppointmentValue <= 0 {
		cfg.Engine.AppointmentValue = 150
	}
	if cfg.Engine.BaselineRiskCutoff <= 0 {
		cfg.Engine.BaselineRiskCutoff = 0.5
	}
	if len(cfg.Engine.Thresholds) == 0 {
		cfg.Engine.Thresholds = DefaultThresholds()
	}
	if cfg.Engine.SweepWorkers <= 0 {
		cfg.Engine.SweepWorkers = 4
	}
	if cfg.Ingest.ChannelBuffer <= 0 {
		cfg.Ingest.ChannelBuffer = 10000
	}
	if cfg.Results.DecisionLimit <= 0 {
		cfg.Results.DecisionLimit = 5000
	}
	if cfg.Results.SweepLimit <= 0 {
		cfg.Results.SweepLimit = 100
	}
	if cfg.Finance.BaselineNoShowRate <= 0 {
		cfg.Finance.BaselineNoShowRate = 0.25
	}
	if cfg.Finance.DiscountRate <= 0 {
		cfg.Finance.DiscountRate = 0.07
	}
	if cfg.Finance.DefaultYears <= 0 {
		cfg.Finance.DefaultYears = 5
	}
}

func Validate(cfg *Config) error {
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	if cfg.Ingest.REST.Enabled && cfg.Ingest.REST.Addr == "" {
		return errors.New("ingest.rest.addr required when ingest.rest.enabled is true")
	}
	if cfg.Ingest.Kafka.Enabled {
		if len(cfg.Ingest.Kafka.Brokers) == 0 || cfg.Ingest.Kafka.Topic == "" || cfg.Ingest.Kafka.GroupID == "" {
			return errors.New("ingest.kafka requires brokers, topic, group_id")
		}
	}
	if cfg.Engine.PerRecordBudget < 0 {
		return errors.New("engine.per_record_budget must not be negative")
	}
	if cfg.Engine.BaselineRiskCutoff < 0 || cfg.Engine.BaselineRiskCutoff > 1 {
		return errors.New("engine.baseline_risk_cutoff must be in [0,1]")
	}
	for _, th := range cfg.Engine.Thresholds {
		if th < 0 || th > 1 {
			return fmt.Errorf("engine.thresholds contains out-of-range value: %v", th)
		}
	}
	for _, entry := range cfg.Catalog {
		if entry.ID == "" {
			return errors.New("catalog entries require an id")
		}
		if entry.Effectiveness <= 0 || entry.Effectiveness > 1 {
			return fmt.Errorf("catalog entry %q: effectiveness must be in (0,1]", entry.ID)
		}
		if entry.Cost < 0 {
			return fmt.Errorf("catalog entry %q: cost must not be negative", entry.ID)
		}
	}
	if cfg.Finance.BaselineNoShowRate >= 1 {
		return errors.New("finance.baseline_no_show_rate must be below 1")
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	info, err := os.Stat(path)
	if err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

// NewStaticManager wraps a config that is not backed by a file.
func NewStaticManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	if m.path == "" {
		return m.Get(), nil
	}
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) Update(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if m.path != "" {
		if err := Save(m.path, cfg); err != nil {
			return err
		}
	}
	m.cfg.Store(cfg)
	if m.path != "" {
		if info, err := os.Stat(m.path); err == nil {
			m.modTime = info.ModTime()
		}
	}
	return nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
