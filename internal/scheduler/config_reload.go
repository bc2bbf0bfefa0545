package scheduler

import (
	"context"
	"time"

	"whatip/internal/config"
	"whatip/internal/logger"
	"whatip/internal/registry"
	"whatip/internal/resolve"
)

// ConfigReloader periodically re-reads the configuration file and merges
// it into the service registry and resolver settings. Load errors are
// non-fatal: the previous state is kept.
type ConfigReloader struct {
	filePath string
	registry *registry.Registry
	resolver *resolve.Resolver
	logger   logger.Logger
	interval time.Duration
	trigger  chan struct{} // manual reload requests
	stopCh   chan struct{}
}

func NewConfigReloader(
	filePath string,
	reg *registry.Registry,
	res *resolve.Resolver,
	log logger.Logger,
	interval time.Duration,
	trigger chan struct{},
) *ConfigReloader {
	return &ConfigReloader{
		filePath: filePath,
		registry: reg,
		resolver: res,
		logger:   log,
		interval: interval,
		trigger:  trigger,
		stopCh:   make(chan struct{}),
	}
}

// Start performs an initial reload and begins the periodic refresh loop.
func (cr *ConfigReloader) Start(ctx context.Context) error {
	if err := cr.Reload(); err != nil {
		cr.logger.Warn("initial config reload failed, keeping built-in defaults",
			logger.Error(err))
	}

	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cr.Reload(); err != nil {
					cr.logger.Warn("periodic config reload failed, keeping previous state",
						logger.Error(err))
				}
			case <-cr.trigger:
				cr.logger.Info("manual config reload triggered")
				if err := cr.Reload(); err != nil {
					cr.logger.Warn("manual config reload failed, keeping previous state",
						logger.Error(err))
				}
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reload loop.
func (cr *ConfigReloader) Stop() {
	close(cr.stopCh)
}

// Reload re-reads the config file, resets the registry to its defaults
// and merges the configured services on top. With no file configured it
// is a no-op.
func (cr *ConfigReloader) Reload() error {
	if cr.filePath == "" {
		return nil
	}

	f, err := config.LoadFile(cr.filePath, cr.logger)
	if err != nil {
		return err
	}

	// Restore defaults first so overrides removed from the file do not
	// linger across reloads.
	cr.registry.Reset()
	cr.registry.MergeConfig(f.IPServices)
	if f.DNSResolver.DefaultTTL > 0 {
		cr.resolver.SetCacheTTL(time.Duration(f.DNSResolver.DefaultTTL) * time.Second)
	}

	cr.logger.Info("configuration reloaded",
		logger.String("file", cr.filePath),
		logger.Int("services", len(f.IPServices)))
	return nil
}
