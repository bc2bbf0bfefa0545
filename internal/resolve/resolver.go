package resolve

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"whatip/internal/logger"
	"whatip/internal/utils"
)

// DefaultTTL is the cache expiry window when none is configured.
const DefaultTTL = 5 * time.Minute

// DefaultBatchWorkers bounds concurrent lookups in batch resolution.
const DefaultBatchWorkers = 5

// Family is the address family hint for forward lookups.
type Family int

const (
	FamilyAny Family = iota
	FamilyIPv4
	FamilyIPv6
)

// network maps the family hint onto net.Resolver's network argument.
func (f Family) network() string {
	switch f {
	case FamilyIPv4:
		return "ip4"
	case FamilyIPv6:
		return "ip6"
	default:
		return "ip"
	}
}

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "any"
	}
}

// ParseFamily interprets a user-supplied family hint. Unknown values
// fall back to FamilyAny.
func ParseFamily(s string) Family {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "4", "ipv4", "ip4", "inet":
		return FamilyIPv4
	case "6", "ipv6", "ip6", "inet6":
		return FamilyIPv6
	default:
		return FamilyAny
	}
}

// Lookuper is the underlying name resolution primitive.
// *net.Resolver satisfies it.
type Lookuper interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// Options configures the resolver's cache behavior.
type Options struct {
	EnableCache bool
	TTL         time.Duration
}

// Resolver performs cache-aware forward, reverse and batch resolution.
// Lookup failures never escape as errors; callers observe absence.
type Resolver struct {
	lookup Lookuper
	cache  *cache
	logger logger.Logger
}

// New creates a resolver. A nil lookup falls back to the system resolver.
func New(lookup Lookuper, opts Options, log logger.Logger) *Resolver {
	if lookup == nil {
		lookup = net.DefaultResolver
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		lookup: lookup,
		cache:  newCache(opts.EnableCache, ttl),
		logger: log,
	}
}

// Resolve returns one address for the hostname, or "" when resolution
// fails. The first address reported by the primitive is canonical and is
// cached together with the hostname's CNAME alias.
func (r *Resolver) Resolve(ctx context.Context, hostname string, family Family) string {
	if rec, ok := r.cache.get(hostname); ok && rec.kind == kindForward {
		r.logger.Debug("cache hit",
			logger.String("hostname", hostname),
			logger.String("address", rec.value))
		return rec.value
	}

	ips, err := r.lookup.LookupIP(ctx, family.network(), hostname)
	if err != nil || len(ips) == 0 {
		r.logger.Warn("forward resolution failed",
			logger.String("hostname", hostname),
			logger.String("family", family.String()),
			logger.Error(err))
		return ""
	}

	addr := ips[0].String()
	r.cache.put(record{
		key:     hostname,
		value:   addr,
		aliases: r.lookupAliases(ctx, hostname),
		kind:    kindForward,
	})

	r.logger.Info("resolved hostname",
		logger.String("hostname", hostname),
		logger.String("address", addr))
	return addr
}

// ResolveAll returns every distinct address for the hostname, in the
// order the primitive reported them, or nil when resolution fails.
// Only the first address is cached, so a later cache hit yields a
// single-element result even when the original query found more.
func (r *Resolver) ResolveAll(ctx context.Context, hostname string, family Family) []string {
	if rec, ok := r.cache.get(hostname); ok && rec.kind == kindForward {
		return []string{rec.value}
	}

	ips, err := r.lookup.LookupIP(ctx, family.network(), hostname)
	if err != nil || len(ips) == 0 {
		r.logger.Warn("forward resolution failed",
			logger.String("hostname", hostname),
			logger.String("family", family.String()),
			logger.Error(err))
		return nil
	}

	seen := make(map[string]struct{}, len(ips))
	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addr := ip.String()
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}

	r.cache.put(record{
		key:     hostname,
		value:   addrs[0],
		aliases: r.lookupAliases(ctx, hostname),
		kind:    kindForward,
	})

	r.logger.Info("resolved hostname",
		logger.String("hostname", hostname),
		logger.Int("addresses", len(addrs)))
	return addrs
}

// Reverse returns the hostname for an address, or "" when the lookup
// fails. Results are not cached. Invalid input fails through the normal
// lookup path rather than a separate validation error.
func (r *Resolver) Reverse(ctx context.Context, addr string) string {
	names, err := r.lookup.LookupAddr(ctx, utils.HostNoPort(addr))
	if err != nil || len(names) == 0 {
		r.logger.Warn("reverse resolution failed",
			logger.String("address", addr),
			logger.Error(err))
		return ""
	}

	hostname := strings.TrimSuffix(names[0], ".")
	r.logger.Info("reverse resolved address",
		logger.String("address", addr),
		logger.String("hostname", hostname))
	return hostname
}

// BatchResolve resolves many hostnames concurrently, bounded by
// maxWorkers. The result holds exactly one entry per distinct input
// hostname; unresolvable hostnames map to "". Failures are independent.
func (r *Resolver) BatchResolve(ctx context.Context, hostnames []string, family Family, maxWorkers int) map[string]string {
	if maxWorkers <= 0 {
		maxWorkers = DefaultBatchWorkers
	}

	results := make(map[string]string, len(hostnames))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(maxWorkers)

	seen := make(map[string]struct{}, len(hostnames))
	for _, hostname := range hostnames {
		if _, dup := seen[hostname]; dup {
			continue
		}
		seen[hostname] = struct{}{}

		hostname := hostname
		g.Go(func() error {
			addr := r.Resolve(ctx, hostname, family)
			mu.Lock()
			results[hostname] = addr
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Info("batch resolution finished",
		logger.Int("hostnames", len(results)))
	return results
}

// lookupAliases collects the CNAME for a hostname when it differs from
// the hostname itself. Best effort only. Aliases only enrich cached
// records, so a disabled cache means no lookup at all.
func (r *Resolver) lookupAliases(ctx context.Context, hostname string) []string {
	if !r.cache.enabled {
		return nil
	}
	cname, err := r.lookup.LookupCNAME(ctx, hostname)
	if err != nil {
		return nil
	}
	cname = strings.TrimSuffix(cname, ".")
	if cname == "" || strings.EqualFold(cname, hostname) {
		return nil
	}
	return []string{cname}
}

// ClearCache empties the resolution cache.
func (r *Resolver) ClearCache() {
	r.cache.clear()
	r.logger.Info("resolution cache cleared")
}

// CacheStats returns a point-in-time snapshot of the cache.
func (r *Resolver) CacheStats() CacheStats {
	return r.cache.stats()
}

// SetCacheTTL changes the expiry window for future checks only.
func (r *Resolver) SetCacheTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	r.cache.setTTL(ttl)
	r.logger.Info("cache ttl updated", logger.Duration("ttl", ttl))
}

// SweepExpired removes expired records and returns how many were dropped.
func (r *Resolver) SweepExpired() int {
	return r.cache.sweep()
}
