package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitalsched/internal/api"
	"vitalsched/internal/catalog"
	"vitalsched/internal/config"
	"vitalsched/internal/engine"
	"vitalsched/internal/ingest"
	"vitalsched/internal/logging"
	"vitalsched/internal/model"
	"vitalsched/internal/results"
	"vitalsched/internal/storage"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to config file (yaml or json)")
	flag.Parse()

	var (
		manager *config.Manager
		err     error
	)
	if *configPath != "" {
		manager, err = config.NewManager(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	} else {
		manager = config.NewStaticManager(config.DefaultConfig())
	}
	cfg := manager.Get()
	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting vitalsched", "version", version, "config", manager.Path())

	cat := catalog.Default()
	if len(cfg.Catalog) > 0 {
		cat, err = catalog.New(cfg.Catalog)
		if err != nil {
			logger.Error("invalid catalog config", "err", err)
			os.Exit(1)
		}
	}
	logger.Info("catalog loaded", "interventions", cat.Len())

	decisions := results.NewDecisionStore(cfg.Results.DecisionLimit)
	sweeps := results.NewSweepStore(cfg.Results.SweepLimit)

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Error("open storage", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if store != nil {
		if err := store.Init(ctx); err != nil {
			logger.Error("init storage", "err", err)
			os.Exit(1)
		}
		defer store.Close()
		logger.Info("storage enabled", "driver", cfg.Storage.Driver)
	}

	eng := engine.NewEngine(cfg, cat, logger, decisions, sweeps, store)

	records := make(chan model.RiskRecord, cfg.Ingest.ChannelBuffer)
	eng.Start(ctx, records)

	if cfg.Ingest.REST.Enabled {
		ingest.StartREST(ctx, manager, records, logger)
	}
	if cfg.Ingest.Kafka.Enabled {
		ingest.StartKafka(ctx, manager, records, logger)
	}

	api.Start(ctx, manager, cat, decisions, sweeps, eng, logger, version)

	if manager.Path() != "" {
		stop := make(chan struct{})
		defer close(stop)
		go manager.Watch(3*time.Second,
			func(next *config.Config) {
				logger.Info("config reloaded", "path", manager.Path())
				eng.UpdateConfig(next)
			},
			func(err error) {
				logger.Warn("config reload failed", "err", err)
			},
			stop)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
	cancel()
	time.Sleep(200 * time.Millisecond)
}
