package scheduler

import (
	"context"
	"time"

	"whatip/internal/logger"
	"whatip/internal/resolve"
)

// CacheSweeper periodically drops expired resolution records so the cache
// does not grow without bound. Lazy eviction on access remains the
// correctness mechanism; the sweep only bounds memory.
type CacheSweeper struct {
	resolver *resolve.Resolver
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewCacheSweeper(res *resolve.Resolver, log logger.Logger, interval time.Duration) *CacheSweeper {
	return &CacheSweeper{
		resolver: res,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep loop.
func (cs *CacheSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(cs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if dropped := cs.resolver.SweepExpired(); dropped > 0 {
					cs.logger.Debug("swept expired cache records",
						logger.Int("dropped", dropped))
				}
			case <-cs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper.
func (cs *CacheSweeper) Stop() {
	close(cs.stopCh)
}
