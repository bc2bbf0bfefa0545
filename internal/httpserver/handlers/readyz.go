package handlers

import (
	"net/http"

	"whatip/internal/httpserver/deps"
)

type readyzResponse struct {
	Status   string `json:"status"`
	Services int    `json:"services"`
}

// Readyz reports ready once the registry holds at least one entry.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		n := d.Registry.Len()
		if n == 0 {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Status: "no services configured",
			})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Status: "ready", Services: n})
	}
}
