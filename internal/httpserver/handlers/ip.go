package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"whatip/internal/detect"
	"whatip/internal/httpserver/deps"
	"whatip/internal/probe"
)

type detectResponse struct {
	Address string `json:"address"`
	Service string `json:"service,omitempty"`
}

type detectFailureResponse struct {
	Error    string            `json:"error"`
	Failures map[string]string `json:"failures,omitempty"`
}

// DetectIP races the enabled services and returns the first address found.
func DetectIP(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := d.Detector.Detect(r.Context(), d.DetectTimeout, d.DetectWorkers)
		respondDetection(w, d, addr, err)
	}
}

// DetectIPSequential walks the enabled services in registry order.
func DetectIPSequential(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := d.Detector.DetectSequential(r.Context(), d.DetectTimeout)
		respondDetection(w, d, addr, err)
	}
}

func respondDetection(w http.ResponseWriter, d deps.Deps, addr string, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, detectResponse{
			Address: addr,
			Service: d.Detector.LastService(),
		})
		return
	}

	resp := detectFailureResponse{Error: "no address found"}
	var allFailed *detect.AllFailedError
	if errors.As(err, &allFailed) {
		resp.Failures = make(map[string]string, len(allFailed.Failures))
		for name, cause := range allFailed.Failures {
			resp.Failures[name] = cause.Error()
		}
	}
	writeJSON(w, http.StatusNotFound, resp)
}

type serviceResponse struct {
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
	Enabled        bool    `json:"enabled"`
}

// ListServices returns the current registry contents in order.
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Registry.List()
		out := make([]serviceResponse, 0, len(entries))
		for _, entry := range entries {
			out = append(out, serviceResponse{
				Name:           entry.Name,
				URL:            entry.URL,
				TimeoutSeconds: entry.Timeout.Seconds(),
				Enabled:        entry.Enabled,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type testServiceResponse struct {
	Service string `json:"service"`
	Success bool   `json:"success"`
	Address string `json:"address,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TestService probes a single named service out of band for diagnostics.
func TestService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		// The probe enforces the entry's own timeout.
		addr, err := d.Detector.TestService(r.Context(), name)
		if err != nil {
			resp := testServiceResponse{Service: name, Error: err.Error()}
			var perr *probe.Error
			if errors.As(err, &perr) {
				resp.Kind = perr.Kind.String()
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}

		writeJSON(w, http.StatusOK, testServiceResponse{
			Service: name,
			Success: true,
			Address: addr,
		})
	}
}
