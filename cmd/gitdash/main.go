// Package main provides the entry point for the git dashboard server.
package main

import (
	"context"
	"os"

	"github.com/LeanderZiehm/git-dashboard/internal/api"
	"github.com/LeanderZiehm/git-dashboard/internal/cache"
	"github.com/LeanderZiehm/git-dashboard/internal/events"
	"github.com/LeanderZiehm/git-dashboard/internal/gitcli"
	"github.com/LeanderZiehm/git-dashboard/internal/inspect"
	"github.com/LeanderZiehm/git-dashboard/internal/metrics"
	"github.com/LeanderZiehm/git-dashboard/internal/scanner"
	"github.com/LeanderZiehm/git-dashboard/internal/shutdown"
	"github.com/LeanderZiehm/git-dashboard/internal/store"
	sqlitestore "github.com/LeanderZiehm/git-dashboard/internal/store/sqlite"
	"github.com/LeanderZiehm/git-dashboard/internal/syncer"
	"github.com/LeanderZiehm/git-dashboard/internal/watcher"
	"github.com/LeanderZiehm/git-dashboard/pkg/config"
	"github.com/LeanderZiehm/git-dashboard/pkg/logger"
)

func main() {
	// Bootstrap logger; replaced once configuration is known.
	log := logger.Default()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log = logger.New(cfg.SlogLevel(), cfg.LogJSON)

	// Operation history store
	var history store.OperationStore
	if cfg.HistoryPath != "" {
		history, err = sqlitestore.Open(cfg.HistoryPath)
		if err != nil {
			log.Error("failed to open history store", "path", cfg.HistoryPath, "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("history persistence disabled, operations are kept in memory only")
		history = store.NewMemoryStore()
	}

	sc, err := scanner.New(cfg.ScanRoot)
	if err != nil {
		log.Error("failed to initialize scanner", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	runner := gitcli.NewRunner(cfg.GitBinary, log.Logger, m.ObserveGitCommand)
	inspector := inspect.New(runner, cfg.InspectTimeout, log.WithComponent("inspect").Logger)
	statusCache := cache.New(cfg.CacheTTL)
	hub := events.NewHub()

	sync := syncer.New(sc, inspector, runner, statusCache, hub, history, m, syncer.Config{
		FetchTimeout:     cfg.FetchTimeout,
		PullTimeout:      cfg.PullTimeout,
		FetchConcurrency: cfg.FetchConcurrency,
	}, log.WithComponent("syncer").Logger)

	server := api.NewServer(cfg, sc, statusCache, sync, hub, history, m.Handler(), log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordinator := shutdown.NewCoordinator(
		shutdown.WithTimeout(cfg.ShutdownTimeout),
		shutdown.WithLogger(log.Logger),
	)
	coordinator.Register(shutdown.NewCloserComponent("history-store", history))
	coordinator.Register(sync)
	coordinator.Register(server)

	// Populate the cache in the background so the first page load has
	// data without blocking startup.
	go func() {
		if err := sync.RefreshAll(ctx); err != nil && ctx.Err() == nil {
			log.Error("initial refresh failed", "error", err)
		}
	}()

	if cfg.WatchEnabled {
		w := watcher.New(sc.Root(), func(ctx context.Context) {
			if err := sync.RefreshAll(ctx); err != nil && ctx.Err() == nil {
				log.Error("rescan failed", "error", err)
			}
		}, log.WithComponent("watcher").Logger)
		if err := w.Start(ctx); err != nil {
			log.Warn("filesystem watching unavailable", "error", err)
		} else {
			coordinator.Register(w)
		}
	}

	go func() {
		coordinator.WaitForSignal()
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	coordinator.Shutdown()
	coordinator.Wait()
	log.Info("server stopped")
	os.Exit(coordinator.ExitCode())
}
