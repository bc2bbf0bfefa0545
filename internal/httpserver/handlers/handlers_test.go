package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"whatip/internal/detect"
	"whatip/internal/httpserver/deps"
	"whatip/internal/logger"
	"whatip/internal/registry"
	"whatip/internal/resolve"
)

type cannedProber struct {
	addrs map[string]string
}

func (p *cannedProber) Fetch(ctx context.Context, entry registry.Entry) (string, error) {
	if addr, ok := p.addrs[entry.Name]; ok {
		return addr, nil
	}
	return "", &net.DNSError{Err: "no such host", Name: entry.Name}
}

type cannedLookuper struct {
	ips map[string][]net.IP
}

func (l *cannedLookuper) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	if ips, ok := l.ips[host]; ok {
		return ips, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func (l *cannedLookuper) LookupCNAME(ctx context.Context, host string) (string, error) {
	return host + ".", nil
}

func (l *cannedLookuper) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	return nil, &net.DNSError{Err: "host not found", Name: addr, IsNotFound: true}
}

func testDeps(t *testing.T) deps.Deps {
	t.Helper()
	log := logger.New("error", false)

	reg := registry.NewWith(log, []registry.Entry{
		{Name: "primary", URL: "https://primary.test/ip", Timeout: time.Second, Enabled: true},
	})
	prober := &cannedProber{addrs: map[string]string{"primary": "203.0.113.7"}}
	lookup := &cannedLookuper{ips: map[string][]net.IP{
		"host.test": {net.ParseIP("203.0.113.1")},
	}}

	return deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		Registry:       reg,
		Detector:       detect.New(reg, prober, log),
		Resolver:       resolve.New(lookup, resolve.Options{EnableCache: true, TTL: time.Minute}, log),
		DetectTimeout:  time.Second,
		DetectWorkers:  3,
		ResolveWorkers: 5,
		ReloadTrigger:  make(chan struct{}, 1),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestDetectIPHandler(t *testing.T) {
	d := testDeps(t)

	rec := httptest.NewRecorder()
	DetectIP(d)(rec, httptest.NewRequest(http.MethodGet, "/api/ip", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp detectResponse
	decodeBody(t, rec, &resp)
	if resp.Address != "203.0.113.7" || resp.Service != "primary" {
		t.Errorf("response = %+v", resp)
	}
}

func TestDetectIPHandlerNoServices(t *testing.T) {
	d := testDeps(t)
	d.Registry.SetEnabled("primary", false)

	rec := httptest.NewRecorder()
	DetectIP(d)(rec, httptest.NewRequest(http.MethodGet, "/api/ip", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestResolveHandler(t *testing.T) {
	d := testDeps(t)

	rec := httptest.NewRecorder()
	Resolve(d)(rec, httptest.NewRequest(http.MethodGet, "/api/resolve?host=host.test", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp resolveResponse
	decodeBody(t, rec, &resp)
	if resp.Address != "203.0.113.1" {
		t.Errorf("address = %q, want 203.0.113.1", resp.Address)
	}
}

func TestResolveHandlerMissingHost(t *testing.T) {
	d := testDeps(t)

	rec := httptest.NewRecorder()
	Resolve(d)(rec, httptest.NewRequest(http.MethodGet, "/api/resolve", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestResolveHandlerNotFound(t *testing.T) {
	d := testDeps(t)

	rec := httptest.NewRecorder()
	Resolve(d)(rec, httptest.NewRequest(http.MethodGet, "/api/resolve?host=missing.test", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestBatchResolveHandler(t *testing.T) {
	d := testDeps(t)

	body := strings.NewReader(`{"hostnames": ["host.test", "host.test", "missing.test"]}`)
	rec := httptest.NewRecorder()
	BatchResolve(d)(rec, httptest.NewRequest(http.MethodPost, "/api/resolve/batch", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp batchResponse
	decodeBody(t, rec, &resp)
	if len(resp.Results) != 2 {
		t.Errorf("results = %v, want 2 entries", resp.Results)
	}
	if resp.Results["host.test"] != "203.0.113.1" {
		t.Errorf("host.test = %q", resp.Results["host.test"])
	}
}

func TestCacheHandlers(t *testing.T) {
	d := testDeps(t)

	// Populate the cache, then clear it through the handler.
	rec := httptest.NewRecorder()
	Resolve(d)(rec, httptest.NewRequest(http.MethodGet, "/api/resolve?host=host.test", nil))

	rec = httptest.NewRecorder()
	ClearCache(d)(rec, httptest.NewRequest(http.MethodDelete, "/api/cache", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	CacheStats(d)(rec, httptest.NewRequest(http.MethodGet, "/api/cache", nil))
	var stats resolve.CacheStats
	decodeBody(t, rec, &stats)
	if stats.Size != 0 {
		t.Errorf("cache size after clear = %d, want 0", stats.Size)
	}
}

func TestTestServiceHandler(t *testing.T) {
	d := testDeps(t)

	r := chi.NewRouter()
	r.Post("/api/ip/services/{name}/test", TestService(d))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ip/services/primary/test", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp testServiceResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Address != "203.0.113.7" {
		t.Errorf("response = %+v", resp)
	}
}

func TestReloadHandler(t *testing.T) {
	d := testDeps(t)

	rec := httptest.NewRecorder()
	Reload(d)(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	// Trigger channel is full now; a second request is throttled.
	rec = httptest.NewRecorder()
	Reload(d)(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}
