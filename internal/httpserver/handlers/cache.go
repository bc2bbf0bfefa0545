package handlers

import (
	"net/http"

	"whatip/internal/httpserver/deps"
)

// CacheStats returns a point-in-time snapshot of the resolution cache.
func CacheStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Resolver.CacheStats())
	}
}

// ClearCache empties the resolution cache.
func ClearCache(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Resolver.ClearCache()
		writeJSON(w, http.StatusOK, map[string]string{"status": "cache cleared"})
	}
}
