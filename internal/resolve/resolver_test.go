package resolve

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"whatip/internal/logger"
)

// fakeLookuper answers from canned tables and counts primitive invocations.
type fakeLookuper struct {
	mu       sync.Mutex
	ips        map[string][]net.IP
	cnames     map[string]string
	ptrs       map[string][]string
	ipCalls    int
	cnameCalls int
	ptrCalls   int
}

func (f *fakeLookuper) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	f.mu.Lock()
	f.ipCalls++
	f.mu.Unlock()

	ips, ok := f.ips[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	if network == "ip4" {
		var v4 []net.IP
		for _, ip := range ips {
			if ip.To4() != nil {
				v4 = append(v4, ip)
			}
		}
		if len(v4) == 0 {
			return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
		}
		return v4, nil
	}
	return ips, nil
}

func (f *fakeLookuper) LookupCNAME(ctx context.Context, host string) (string, error) {
	f.mu.Lock()
	f.cnameCalls++
	f.mu.Unlock()

	if cname, ok := f.cnames[host]; ok {
		return cname, nil
	}
	return host + ".", nil
}

func (f *fakeLookuper) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	f.mu.Lock()
	f.ptrCalls++
	f.mu.Unlock()

	names, ok := f.ptrs[addr]
	if !ok {
		return nil, &net.DNSError{Err: "host not found", Name: addr, IsNotFound: true}
	}
	return names, nil
}

func (f *fakeLookuper) lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ipCalls
}

func newTestResolver(lookup Lookuper, enableCache bool) *Resolver {
	return New(lookup, Options{EnableCache: enableCache, TTL: time.Minute}, logger.New("error", false))
}

func TestResolveCachesWithinTTL(t *testing.T) {
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"host.test": {net.ParseIP("203.0.113.1")},
	}}
	r := newTestResolver(lookup, true)

	first := r.Resolve(context.Background(), "host.test", FamilyAny)
	second := r.Resolve(context.Background(), "host.test", FamilyAny)

	if first != "203.0.113.1" || second != first {
		t.Errorf("Resolve() = %q then %q, want identical 203.0.113.1", first, second)
	}
	if lookup.lookups() != 1 {
		t.Errorf("primitive invoked %d times, want 1 (second call cached)", lookup.lookups())
	}
}

func TestResolveExpiredTTLHitsPrimitiveAgain(t *testing.T) {
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"host.test": {net.ParseIP("203.0.113.1")},
	}}
	r := newTestResolver(lookup, true)

	base := time.Now()
	r.cache.now = func() time.Time { return base }
	r.Resolve(context.Background(), "host.test", FamilyAny)

	r.cache.now = func() time.Time { return base.Add(2 * time.Minute) }
	r.Resolve(context.Background(), "host.test", FamilyAny)

	if lookup.lookups() != 2 {
		t.Errorf("primitive invoked %d times, want 2 (record expired)", lookup.lookups())
	}
}

func TestResolveFailureReturnsEmpty(t *testing.T) {
	r := newTestResolver(&fakeLookuper{}, true)

	if addr := r.Resolve(context.Background(), "missing.test", FamilyAny); addr != "" {
		t.Errorf("Resolve() = %q on failure, want empty", addr)
	}
	if stats := r.CacheStats(); stats.Size != 0 {
		t.Errorf("failed lookups must not populate the cache, size = %d", stats.Size)
	}
}

func TestResolveFamilyHint(t *testing.T) {
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"dual.test": {net.ParseIP("2001:db8::1"), net.ParseIP("203.0.113.1")},
	}}
	r := newTestResolver(lookup, false)

	if addr := r.Resolve(context.Background(), "dual.test", FamilyIPv4); addr != "203.0.113.1" {
		t.Errorf("Resolve(ipv4) = %q, want 203.0.113.1", addr)
	}
	if addr := r.Resolve(context.Background(), "dual.test", FamilyAny); addr != "2001:db8::1" {
		t.Errorf("Resolve(any) = %q, want first address 2001:db8::1", addr)
	}
}

func TestResolveAllDedupes(t *testing.T) {
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"multi.test": {
			net.ParseIP("203.0.113.1"),
			net.ParseIP("203.0.113.2"),
			net.ParseIP("203.0.113.1"),
		},
	}}
	r := newTestResolver(lookup, true)

	addrs := r.ResolveAll(context.Background(), "multi.test", FamilyAny)
	if len(addrs) != 2 {
		t.Fatalf("ResolveAll() = %v, want 2 distinct addresses", addrs)
	}
	if addrs[0] != "203.0.113.1" || addrs[1] != "203.0.113.2" {
		t.Errorf("ResolveAll() = %v, want order preserved", addrs)
	}
}

func TestResolveAllCacheHitReturnsSingleAddress(t *testing.T) {
	// Only the first address is cached, so a cache hit yields one address
	// even though the original query found more.
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"multi.test": {net.ParseIP("203.0.113.1"), net.ParseIP("203.0.113.2")},
	}}
	r := newTestResolver(lookup, true)

	first := r.ResolveAll(context.Background(), "multi.test", FamilyAny)
	if len(first) != 2 {
		t.Fatalf("first ResolveAll() = %v, want 2 addresses", first)
	}

	second := r.ResolveAll(context.Background(), "multi.test", FamilyAny)
	if len(second) != 1 || second[0] != "203.0.113.1" {
		t.Errorf("cached ResolveAll() = %v, want [203.0.113.1]", second)
	}
	if lookup.lookups() != 1 {
		t.Errorf("primitive invoked %d times, want 1", lookup.lookups())
	}
}

func TestReverse(t *testing.T) {
	lookup := &fakeLookuper{ptrs: map[string][]string{
		"203.0.113.1": {"host.example.test."},
	}}
	r := newTestResolver(lookup, true)

	if got := r.Reverse(context.Background(), "203.0.113.1"); got != "host.example.test" {
		t.Errorf("Reverse() = %q, want host.example.test (trailing dot trimmed)", got)
	}
	if got := r.Reverse(context.Background(), "203.0.113.99"); got != "" {
		t.Errorf("Reverse() = %q on failure, want empty", got)
	}
	if stats := r.CacheStats(); stats.Size != 1 {
		t.Errorf("reverse lookups must not be cached, size = %d want 1", stats.Size)
	}
}

func TestReverseNotCached(t *testing.T) {
	lookup := &fakeLookuper{ptrs: map[string][]string{
		"203.0.113.1": {"host.example.test."},
	}}
	r := newTestResolver(lookup, true)

	r.Reverse(context.Background(), "203.0.113.1")
	r.Reverse(context.Background(), "203.0.113.1")

	lookup.mu.Lock()
	calls := lookup.ptrCalls
	lookup.mu.Unlock()
	if calls != 2 {
		t.Errorf("reverse primitive invoked %d times, want 2 (no caching)", calls)
	}
}

func TestBatchResolveCollapsesDuplicates(t *testing.T) {
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"a.test": {net.ParseIP("203.0.113.1")},
		"b.test": {net.ParseIP("203.0.113.2")},
	}}
	r := newTestResolver(lookup, true)

	results := r.BatchResolve(context.Background(), []string{"a.test", "a.test", "b.test"}, FamilyAny, 2)
	if len(results) != 2 {
		t.Fatalf("BatchResolve() returned %d entries, want 2", len(results))
	}
	if results["a.test"] != "203.0.113.1" || results["b.test"] != "203.0.113.2" {
		t.Errorf("BatchResolve() = %v", results)
	}
}

func TestBatchResolveIsolatesFailures(t *testing.T) {
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"good.test": {net.ParseIP("203.0.113.1")},
	}}
	r := newTestResolver(lookup, true)

	results := r.BatchResolve(context.Background(), []string{"good.test", "bad.test"}, FamilyAny, 0)
	if results["good.test"] != "203.0.113.1" {
		t.Errorf("good.test = %q, want 203.0.113.1", results["good.test"])
	}
	if addr, ok := results["bad.test"]; !ok || addr != "" {
		t.Errorf("bad.test = (%q, %v), want present and empty", addr, ok)
	}
}

func TestCacheControls(t *testing.T) {
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"host.test": {net.ParseIP("203.0.113.1")},
	}}
	r := newTestResolver(lookup, true)

	r.Resolve(context.Background(), "host.test", FamilyAny)
	if stats := r.CacheStats(); stats.Size != 1 {
		t.Fatalf("size = %d, want 1", stats.Size)
	}

	r.ClearCache()
	if stats := r.CacheStats(); stats.Size != 0 {
		t.Errorf("size after ClearCache = %d, want 0", stats.Size)
	}

	r.SetCacheTTL(30 * time.Second)
	if stats := r.CacheStats(); stats.TTLSeconds != 30 {
		t.Errorf("TTLSeconds = %v after SetCacheTTL, want 30", stats.TTLSeconds)
	}
}

func TestCacheDisabledAlwaysHitsPrimitive(t *testing.T) {
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"host.test": {net.ParseIP("203.0.113.1")},
	}}
	r := newTestResolver(lookup, false)

	r.Resolve(context.Background(), "host.test", FamilyAny)
	r.Resolve(context.Background(), "host.test", FamilyAny)
	if lookup.lookups() != 2 {
		t.Errorf("primitive invoked %d times with cache disabled, want 2", lookup.lookups())
	}
}

func TestCacheDisabledSkipsAliasLookup(t *testing.T) {
	lookup := &fakeLookuper{ips: map[string][]net.IP{
		"host.test": {net.ParseIP("203.0.113.1")},
	}}
	r := newTestResolver(lookup, false)

	r.Resolve(context.Background(), "host.test", FamilyAny)

	lookup.mu.Lock()
	calls := lookup.cnameCalls
	lookup.mu.Unlock()
	if calls != 0 {
		t.Errorf("CNAME primitive invoked %d times with cache disabled, want 0", calls)
	}
}

func TestParseFamily(t *testing.T) {
	cases := map[string]Family{
		"":      FamilyAny,
		"any":   FamilyAny,
		"4":     FamilyIPv4,
		"ipv4":  FamilyIPv4,
		"IPv6":  FamilyIPv6,
		"6":     FamilyIPv6,
		"bogus": FamilyAny,
	}
	for in, want := range cases {
		if got := ParseFamily(in); got != want {
			t.Errorf("ParseFamily(%q) = %v, want %v", in, got, want)
		}
	}
}
