package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/folio/folio/internal/api"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/database"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/federation"
	"github.com/folio/folio/internal/logger"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/resolver"
	"github.com/folio/folio/internal/scheduler"
	"github.com/folio/folio/internal/scheduler/tasks"
	"github.com/folio/folio/internal/search"
	"github.com/folio/folio/internal/sites/builtin"
	"github.com/folio/folio/internal/sites/ratelimit"
	"github.com/folio/folio/internal/sites/status"
	"github.com/folio/folio/internal/websocket"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	stream := logger.NewStream(1000)
	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		Stream:     stream,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting folio")

	if err := run(cfg, log, stream); err != nil {
		log.Error().Err(err).Msg("folio stopped with error")
		log.Close()
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log *logger.Logger, stream *logger.Stream) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(log.Logger)
	hub.SetHistoryHandler(func() any { return stream.Recent() })
	stream.Attach(hub)
	go hub.Run(ctx)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	var (
		cache     downloader.Cache
		purger    tasks.Purger
		peerStore federation.SnapshotStore
	)
	if cfg.Database.Path != "" {
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		log.Info().Str("path", db.Path()).Msg("running database migrations")
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		store := database.NewCacheStore(db, cfg.Downloader.CacheTTL, log.Logger)
		cache, purger = store, store
		peerStore = database.NewPeerStore(db)
	} else {
		mem := downloader.NewMemoryCache(cfg.Downloader.CacheTTL, 0)
		cache, purger = mem, mem
	}

	env, err := builtin.NewEnv(builtin.EnvOptions{
		Downloader: cfg.Downloader,
		Languages:  cfg.PreferredLanguages,
		Cache:      cache,
		Metrics:    m,
		Logger:     log.WithComponent("downloader"),
	})
	if err != nil {
		return err
	}

	registry, err := builtin.NewRegistry(env, cfg.Sites, nil, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to build site registry: %w", err)
	}

	statusSvc := status.NewService(status.DefaultBreakerConfig(), m, log.Logger)
	budget := ratelimit.NewLimiter(ratelimit.ConfigFromBudget(cfg.Sites.SearchBudget), log.Logger)

	var (
		directory federation.Directory = federation.NewStaticDirectory(cfg.Federation.Peers)
		peersFile *federation.FileDirectory
	)
	if cfg.Federation.PeersFile != "" {
		peersFile = federation.NewFileDirectory(cfg.Federation.PeersFile, peerStore, log.Logger)
		if err := peersFile.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("peer file watching disabled")
		}
		defer peersFile.Stop()
		directory = peersFile
	}

	peers := federation.NewSearcher(env.Search, directory, federation.Options{
		OwnDomains: cfg.Federation.SiteDomains,
		Timeout:    cfg.Federation.PeerTimeout,
		Logger:     log.Logger,
	})

	aggregator := search.New(search.Options{
		Searchers: builtin.Searchers(env, cfg.Sites, nil),
		Peers:     peers,
		Status:    statusSvc,
		Budget:    budget,
		Metrics:   m,
		Events:    hub,
		Logger:    log.Logger,
	})

	res := resolver.New(registry, resolver.Options{
		CoverDir: cfg.Downloader.CoverDir,
		Metrics:  m,
		Logger:   log.Logger,
	})

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		return err
	}
	if peersFile != nil {
		if err := tasks.RegisterPeerRefreshTask(sched, peersFile, cfg.Federation.RefreshCron); err != nil {
			return err
		}
	}
	if err := tasks.RegisterCachePurgeTask(sched, purger, cfg.Downloader.CachePurge, log.WithComponent("cache")); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("scheduler shutdown error")
		}
	}()

	server := api.NewServer(api.Deps{
		Registry:  registry,
		Search:    aggregator,
		Resolver:  res,
		Status:    statusSvc,
		Budget:    budget,
		Scheduler: sched,
		Hub:       hub,
		Logs:      stream,
		LogPath:   cfg.Logging.Path,
		Gatherer:  promReg,
	}, cfg.Server, log.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	return nil
}
