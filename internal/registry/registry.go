package registry

import (
	"sort"
	"sync"
	"time"

	"whatip/internal/config"
	"whatip/internal/logger"
)

// DefaultTimeout is applied to entries that do not carry their own timeout.
const DefaultTimeout = 10 * time.Second

// Entry is one configured public address detection endpoint.
// Identity is by Name alone: two entries with the same name are the same
// service even if URL or timeout differ.
type Entry struct {
	Name    string
	URL     string
	Timeout time.Duration
	Enabled bool
}

// Defaults returns a fresh copy of the built-in endpoint set.
// Each endpoint returns a bare address string as its entire response body.
// Callers own the returned slice; mutating it never affects later calls.
func Defaults() []Entry {
	return []Entry{
		{Name: "ipify", URL: "https://api.ipify.org", Timeout: DefaultTimeout, Enabled: true},
		{Name: "ipinfo", URL: "https://ipinfo.io/ip", Timeout: DefaultTimeout, Enabled: true},
		{Name: "ifconfig", URL: "https://ifconfig.me/ip", Timeout: DefaultTimeout, Enabled: true},
		{Name: "icanhazip", URL: "https://icanhazip.com", Timeout: DefaultTimeout, Enabled: true},
	}
}

// Registry holds the ordered set of detection endpoints.
// All operations are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries []Entry
	logger  logger.Logger
}

// New creates a registry seeded with the built-in defaults.
func New(log logger.Logger) *Registry {
	return &Registry{
		entries: Defaults(),
		logger:  log,
	}
}

// NewWith creates a registry holding a copy of the given entries.
func NewWith(log logger.Logger, entries []Entry) *Registry {
	r := &Registry{
		entries: make([]Entry, len(entries)),
		logger:  log,
	}
	copy(r.entries, entries)
	return r
}

// Upsert inserts a new entry or replaces an existing one matched by name.
// Replacement happens in place, preserving registry order.
func (r *Registry) Upsert(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.entries {
		if existing.Name == entry.Name {
			r.entries[i] = entry
			return
		}
	}
	r.entries = append(r.entries, entry)
}

// Remove deletes an entry by name and reports whether it was found.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.entries {
		if existing.Name == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled toggles an entry without altering its URL or timeout,
// and reports whether the entry was found.
func (r *Registry) SetEnabled(name string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.entries {
		if existing.Name == name {
			r.entries[i].Enabled = enabled
			return true
		}
	}
	return false
}

// List returns a defensive copy of all entries in registry order.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Enabled returns a copy of the enabled entries in registry order.
func (r *Registry) Enabled() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Enabled {
			out = append(out, entry)
		}
	}
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Reset discards all entries and restores the built-in defaults.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = Defaults()
}

// MergeConfig applies configured services on top of the current set.
// Missing fields fall back to url="", timeout=10s, enabled=true.
// Entries are applied in name order so the result is deterministic.
func (r *Registry) MergeConfig(services map[string]config.ServiceConfig) {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc := services[name]

		entry := Entry{
			Name:    name,
			URL:     svc.URL,
			Timeout: DefaultTimeout,
			Enabled: true,
		}
		if svc.Timeout > 0 {
			entry.Timeout = time.Duration(svc.Timeout) * time.Second
		}
		if svc.Enabled != nil {
			entry.Enabled = *svc.Enabled
		}

		r.Upsert(entry)
		if r.logger != nil {
			r.logger.Debug("merged service from config",
				logger.String("service", name),
				logger.Bool("enabled", entry.Enabled))
		}
	}
}
