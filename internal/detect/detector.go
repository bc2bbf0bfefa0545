package detect

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"whatip/internal/logger"
	"whatip/internal/registry"
)

// DefaultWorkers bounds how many probes run at once in race mode.
const DefaultWorkers = 3

// ErrNoServices is returned when the registry has no enabled entries.
var ErrNoServices = errors.New("no enabled detection services")

// AllFailedError reports one classified failure per service after every
// launched probe failed.
type AllFailedError struct {
	Failures map[string]error
}

func (e *AllFailedError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("all services failed: %s", strings.Join(names, ", "))
}

// Prober issues a single probe against one service entry.
type Prober interface {
	Fetch(ctx context.Context, entry registry.Entry) (string, error)
}

// Detector orchestrates probes across the registry's enabled entries,
// either racing them concurrently or walking them in order.
type Detector struct {
	registry *registry.Registry
	prober   Prober
	logger   logger.Logger

	mu   sync.Mutex
	last string // name of the most recent winning service
}

func New(reg *registry.Registry, prober Prober, log logger.Logger) *Detector {
	return &Detector{
		registry: reg,
		prober:   prober,
		logger:   log,
	}
}

type probeResult struct {
	name string
	addr string
	err  error
}

// Detect races one probe per enabled service, bounded by maxWorkers, and
// returns the first non-empty address. Outstanding probes are cancelled
// once a winner is chosen; the caller does not wait for them. If every
// probe fails, the aggregate failure is returned.
func (d *Detector) Detect(ctx context.Context, timeout time.Duration, maxWorkers int) (string, error) {
	enabled := d.registry.Enabled()
	if len(enabled) == 0 {
		d.logger.Warn("no enabled detection services")
		return "", ErrNoServices
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultWorkers
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	d.logger.Info("starting public address detection",
		logger.Int("services", len(enabled)),
		logger.Int("max_workers", maxWorkers))

	probeCtx, cancelProbes := context.WithCancel(ctx)
	defer cancelProbes()

	// Buffered so late losers never block after the caller has returned.
	results := make(chan probeResult, len(enabled))
	sem := semaphore.NewWeighted(int64(maxWorkers))
	for _, entry := range enabled {
		go func(entry registry.Entry) {
			if err := sem.Acquire(probeCtx, 1); err != nil {
				results <- probeResult{name: entry.Name, err: err}
				return
			}
			defer sem.Release(1)
			addr, err := d.prober.Fetch(probeCtx, entry)
			results <- probeResult{name: entry.Name, addr: addr, err: err}
		}(entry)
	}

	failures := make(map[string]error, len(enabled))
	for range enabled {
		select {
		case <-ctx.Done():
			d.logger.Error("public address detection timed out",
				logger.Int("failed", len(failures)))
			return "", fmt.Errorf("detection aborted: %w", ctx.Err())
		case res := <-results:
			if res.err == nil && res.addr != "" {
				d.setLast(res.name)
				d.logger.Info("detected public address",
					logger.String("address", res.addr),
					logger.String("service", res.name))
				return res.addr, nil
			}
			if res.err != nil {
				failures[res.name] = res.err
			} else {
				failures[res.name] = errors.New("empty address")
			}
		}
	}

	err := &AllFailedError{Failures: failures}
	d.logger.Error("public address detection failed", logger.Error(err))
	return "", err
}

// DetectSequential walks enabled services strictly in registry order and
// returns the first success. Each attempt is capped at
// min(entry timeout, caller timeout); a zero caller timeout applies no cap.
func (d *Detector) DetectSequential(ctx context.Context, timeout time.Duration) (string, error) {
	enabled := d.registry.Enabled()
	if len(enabled) == 0 {
		d.logger.Warn("no enabled detection services")
		return "", ErrNoServices
	}

	d.logger.Info("starting sequential public address detection",
		logger.Int("services", len(enabled)))

	failures := make(map[string]error, len(enabled))
	for _, entry := range enabled {
		attempt := entry
		if timeout > 0 && (attempt.Timeout <= 0 || timeout < attempt.Timeout) {
			attempt.Timeout = timeout
		}

		addr, err := d.prober.Fetch(ctx, attempt)
		if err != nil {
			d.logger.Warn("service failed, trying next",
				logger.String("service", entry.Name),
				logger.Error(err))
			failures[entry.Name] = err
			continue
		}
		if addr == "" {
			failures[entry.Name] = errors.New("empty address")
			continue
		}

		d.setLast(entry.Name)
		d.logger.Info("detected public address",
			logger.String("address", addr),
			logger.String("service", entry.Name))
		return addr, nil
	}

	err := &AllFailedError{Failures: failures}
	d.logger.Error("public address detection failed", logger.Error(err))
	return "", err
}

// TestService runs a single out-of-band probe for diagnostics. Disabled
// services may be tested too.
func (d *Detector) TestService(ctx context.Context, name string) (string, error) {
	for _, entry := range d.registry.List() {
		if entry.Name == name {
			return d.prober.Fetch(ctx, entry)
		}
	}
	return "", fmt.Errorf("service %q not found", name)
}

// LastService returns the name of the most recent winning service,
// or "" when no detection has succeeded yet.
func (d *Detector) LastService() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.last
}

func (d *Detector) setLast(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = name
}
