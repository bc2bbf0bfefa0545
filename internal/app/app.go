package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatip/internal/config"
	"whatip/internal/detect"
	"whatip/internal/httpserver"
	"whatip/internal/httpserver/deps"
	"whatip/internal/logger"
	"whatip/internal/probe"
	"whatip/internal/registry"
	"whatip/internal/resolve"
	"whatip/internal/scheduler"
	"whatip/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	reloader *scheduler.ConfigReloader
	sweeper  *scheduler.CacheSweeper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Registry starts from the built-in defaults; the config file, if any,
	// is merged on top by the reloader's initial pass.
	reg := registry.New(loggerClient)

	prober := probe.NewClient(loggerClient)
	detector := detect.New(reg, prober, loggerClient)

	// Resolver options come from the config file when one is configured.
	opts := resolve.Options{EnableCache: true, TTL: resolve.DefaultTTL}
	if cfg.ConfigFile != "" {
		if f, err := config.LoadFile(cfg.ConfigFile, loggerClient); err != nil {
			loggerClient.Warn("failed to load config file, using defaults",
				logger.String("file", cfg.ConfigFile),
				logger.Error(err))
		} else {
			if f.DNSResolver.EnableCache != nil {
				opts.EnableCache = *f.DNSResolver.EnableCache
			}
			if f.DNSResolver.DefaultTTL > 0 {
				opts.TTL = time.Duration(f.DNSResolver.DefaultTTL) * time.Second
			}
		}
	}
	resolver := resolve.New(nil, opts, loggerClient)

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewConfigReloader(
		cfg.ConfigFile,
		reg,
		resolver,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	sweeper := scheduler.NewCacheSweeper(resolver, loggerClient, cfg.SweepInterval)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		Registry:       reg,
		Detector:       detector,
		Resolver:       resolver,
		DetectTimeout:  cfg.DetectTimeout,
		DetectWorkers:  cfg.DetectWorkers,
		ResolveWorkers: cfg.ResolveWorkers,
		ReloadTrigger:  reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   server,
		reloader: reloader,
		sweeper:  sweeper,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting whatip v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("whatip %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start config reloader (initial merge + periodic refresh)
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start config reloader: %w", err)
	}
	a.logger.Info("config reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	// Start cache sweeper
	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cache sweeper: %w", err)
	}
	a.logger.Info("cache sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ whatip stopped cleanly")
	return nil
}
