package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/itour/internal/config"
	"github.com/MrSnakeDoc/itour/internal/domain"
	"github.com/MrSnakeDoc/itour/internal/httpserver"
	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
	"github.com/MrSnakeDoc/itour/internal/logger"
	"github.com/MrSnakeDoc/itour/internal/metrics"
	"github.com/MrSnakeDoc/itour/internal/planner"
	"github.com/MrSnakeDoc/itour/internal/scheduler"
	"github.com/MrSnakeDoc/itour/internal/sources/seed"
	"github.com/MrSnakeDoc/itour/internal/store"
	"github.com/MrSnakeDoc/itour/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	store   *store.Store
	planner *planner.Planner
	saver   *scheduler.AutoSaver
	server  *httpserver.Server
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	locale, err := domain.ParseLocale(cfg.Locale)
	if err != nil {
		loggerClient.Errorf("Invalid locale: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()

	backend, err := openBackend(ctx, cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s backend: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}

	s, err := store.Open(ctx, backend,
		store.WithLogger(loggerClient),
		store.WithLocale(locale),
	)
	if err != nil {
		loggerClient.Errorf("Failed to load store: %v", err)
		_ = backend.Close()
		os.Exit(1)
	}
	loggerClient.Info("store loaded",
		logger.String("backend", backend.Name()),
		logger.Int("destinations", s.Count()),
		logger.String("locale", locale.String()))

	m := metrics.New()
	p := planner.New(s, loggerClient, planner.WithMetrics(m))

	if err := seedIfEmpty(ctx, cfg, p, loggerClient); err != nil {
		loggerClient.Errorf("Failed to seed store: %v", err)
		_ = s.Close()
		os.Exit(1)
	}

	saver := scheduler.NewAutoSaver(p, loggerClient, cfg.AutosaveInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RequestTimeout:  cfg.RequestTimeout,
		SSEHeartbeat:    cfg.SSEHeartbeat,
		Planner:         p,
		Metrics:         m,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		store:   s,
		planner: p,
		saver:   saver,
		server:  server,
	}
}

// seedIfEmpty loads preview fixtures (or ITOUR_SEED_FILE) into an empty store.
func seedIfEmpty(ctx context.Context, cfg *config.Config, p *planner.Planner, log logger.Logger) error {
	if !cfg.SeedOnEmpty && cfg.SeedFile == "" {
		return nil
	}
	if p.Store().Count() > 0 {
		log.Debug("store not empty, skipping seed")
		return nil
	}

	f, err := seed.NewLoader(cfg.SeedFile).Load()
	if err != nil {
		return err
	}
	templates, err := seed.NewMapper(time.Now).MapDestinations(f)
	if err != nil {
		return err
	}
	if _, err := p.Seed(ctx, templates); err != nil {
		return err
	}
	if cfg.SeedFile == "" {
		log.Info("preview data loaded")
	}
	return nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting iTour v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("iTour %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Foreground commit, then the interval loop
	if err := a.saver.Start(ctx); err != nil {
		return fmt.Errorf("failed to start autosaver: %w", err)
	}
	a.logger.Info("autosaver started",
		logger.Duration("interval", a.cfg.AutosaveInterval))

	// SIGHUP stands for "moved to background"
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				if !a.saver.Trigger(store.TriggerBackground) {
					a.logger.Debug("background commit already queued")
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")
		return a.shutdown()
	})

	return g.Wait()
}

// shutdown stops intake first, then commits what is left and closes the store.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var stopErr error
	if err := a.server.Stop(shutdownCtx); err != nil {
		stopErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.saver.Stop()

	if err := a.planner.Persist(shutdownCtx, store.TriggerShutdown); err != nil {
		return err
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close %s backend: %v", a.store.BackendName(), err)
	} else {
		a.logger.Infof("✅ %s backend closed cleanly", a.store.BackendName())
	}

	if stopErr != nil {
		return stopErr
	}
	a.logger.Info("✅ iTour stopped cleanly")
	return nil
}
