// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the mindrouter server, the
// orchestration engine that routes note-analysis work across
// heterogeneous AI backends.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/thinkmate/mindrouter/internal/api"
	"github.com/thinkmate/mindrouter/internal/buildinfo"
	"github.com/thinkmate/mindrouter/internal/cache"
	"github.com/thinkmate/mindrouter/internal/config"
	"github.com/thinkmate/mindrouter/internal/executor"
	"github.com/thinkmate/mindrouter/internal/hooks"
	"github.com/thinkmate/mindrouter/internal/logging"
	"github.com/thinkmate/mindrouter/internal/orchestrator"
	"github.com/thinkmate/mindrouter/internal/provider"
	"github.com/thinkmate/mindrouter/internal/registry"
	"github.com/thinkmate/mindrouter/internal/scenario"
	"github.com/thinkmate/mindrouter/internal/selector"
	"github.com/thinkmate/mindrouter/internal/steering"
	"github.com/thinkmate/mindrouter/internal/tracker"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	// .env is optional; environment wins over file values.
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	if cfg.Debug {
		logging.SetLevel("debug")
	} else {
		logging.SetLevel("info")
	}
	if err := logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogDir); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	log.Infof("mindrouter %s (%s, built %s) starting", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
	log.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	bus := hooks.NewEventBus()
	defer bus.Shutdown()

	providers := provider.NewRegistry()
	if err := registerProviders(providers, cfg); err != nil {
		return err
	}

	reg := registry.New(cfg.DefaultProvider)
	seedCapabilities(reg, cfg)

	var journal *tracker.Journal
	if cfg.Tracker.JournalPath != "" {
		j, err := tracker.NewJournal(cfg.Tracker.JournalPath, cfg.Tracker.RetentionDays)
		if err != nil {
			return err
		}
		if err := j.Initialize(ctx); err != nil {
			return err
		}
		journal = j
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = journal.Shutdown(shutdownCtx)
		}()
	}
	trk := tracker.New(reg, cfg.Tracker.RingSize, journal)

	quick := cache.New(cfg.Quick.MaxEntries, time.Duration(cfg.Quick.TTLSeconds)*time.Second)

	var steer *steering.Engine
	if cfg.Steering.Enabled {
		engine, err := steering.NewEngine(cfg.Steering.RulesDir)
		if err != nil {
			return err
		}
		if err := engine.LoadRules(); err != nil {
			log.Warnf("Failed to load steering rules: %v", err)
		}
		// Cached quick suggestions may reflect retired rules.
		engine.OnReload(quick.Purge)
		if cfg.Steering.Watch {
			if err := engine.StartWatcher(); err != nil {
				log.Warnf("Failed to start steering watcher: %v", err)
			} else {
				defer engine.StopWatcher()
			}
		}
		steer = engine
	}

	orch := orchestrator.New(orchestrator.Options{
		Detector: scenario.NewDetector(),
		Selector: selector.New(reg),
		Registry: reg,
		Executor: executor.New(providers, bus, cfg.CallTimeout()),
		Tracker:  trk,
		Steering: steer,
		Quick:    quick,
		Bus:      bus,
	})

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 10m", func() {
		if n := orch.PruneFinished(); n > 0 {
			log.Infof("Pruned %d finished task records", n)
		}
	}); err != nil {
		return err
	}
	if _, err := scheduler.AddFunc("@daily", func() {
		reg.DriftTowardBaseline(0.05)
	}); err != nil {
		return err
	}
	if journal != nil {
		if _, err := scheduler.AddFunc("@daily", func() {
			journal.Cleanup(context.Background())
		}); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := api.New(orch, reg, trk, steer, quick, bus)
	return server.Run(ctx, cfg.Host, cfg.Port)
}

// registerProviders builds the configured backend adapters. A config
// with no providers gets a built-in local heuristic backend so the
// engine stays usable offline.
func registerProviders(providers *provider.Registry, cfg *config.Config) error {
	for _, p := range cfg.Providers {
		analyzer, err := provider.FromConfig(p.ID, p.Kind, p.Model, p.APIKey(), p.BaseURL)
		if err != nil {
			return err
		}
		if err := providers.Register(analyzer); err != nil {
			return err
		}
	}
	if len(cfg.Providers) == 0 {
		log.Warn("No providers configured; registering the local heuristic backend only")
		return providers.Register(provider.NewLocal(cfg.DefaultProvider))
	}
	return nil
}

// seedCapabilities loads the capability table from config, falling back
// to a general-scenario row per provider when the table is empty.
func seedCapabilities(reg *registry.Registry, cfg *config.Config) {
	if len(cfg.Capabilities) == 0 {
		for _, p := range cfg.Providers {
			if err := reg.Register(registry.Capability{
				Scenario:   scenario.ScenarioGeneral,
				ProviderID: p.ID,
				Speed:      registry.SpeedMedium,
				Quality:    registry.QualityGood,
				Cost:       registry.CostMedium,
			}); err != nil {
				log.Warnf("Skipping capability row for %s: %v", p.ID, err)
			}
		}
		return
	}
	for _, row := range cfg.Capabilities {
		if err := reg.Register(registry.Capability{
			Scenario:    scenario.Scenario(row.Scenario),
			ProviderID:  row.ProviderID,
			Speed:       registry.Speed(row.Speed),
			Quality:     registry.Quality(row.Quality),
			Cost:        registry.Cost(row.Cost),
			Reliability: row.Reliability,
		}); err != nil {
			log.Warnf("Skipping capability row for %s/%s: %v", row.ProviderID, row.Scenario, err)
		}
	}
}
