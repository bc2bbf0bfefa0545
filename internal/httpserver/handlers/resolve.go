package handlers

import (
	"encoding/json"
	"net/http"

	"whatip/internal/httpserver/deps"
	"whatip/internal/logger"
	"whatip/internal/resolve"
)

type resolveResponse struct {
	Hostname string `json:"hostname"`
	Address  string `json:"address"`
}

// Resolve performs a forward lookup for one hostname.
func Resolve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostname := r.URL.Query().Get("host")
		if hostname == "" {
			writeError(w, http.StatusBadRequest, "missing host parameter")
			return
		}
		family := resolve.ParseFamily(r.URL.Query().Get("family"))

		addr := d.Resolver.Resolve(r.Context(), hostname, family)
		if addr == "" {
			writeError(w, http.StatusNotFound, "no address found")
			return
		}
		writeJSON(w, http.StatusOK, resolveResponse{Hostname: hostname, Address: addr})
	}
}

type resolveAllResponse struct {
	Hostname  string   `json:"hostname"`
	Addresses []string `json:"addresses"`
}

// ResolveAll performs a forward lookup returning every distinct address.
func ResolveAll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostname := r.URL.Query().Get("host")
		if hostname == "" {
			writeError(w, http.StatusBadRequest, "missing host parameter")
			return
		}
		family := resolve.ParseFamily(r.URL.Query().Get("family"))

		addrs := d.Resolver.ResolveAll(r.Context(), hostname, family)
		if len(addrs) == 0 {
			writeError(w, http.StatusNotFound, "no address found")
			return
		}
		writeJSON(w, http.StatusOK, resolveAllResponse{Hostname: hostname, Addresses: addrs})
	}
}

type reverseResponse struct {
	Address  string `json:"address"`
	Hostname string `json:"hostname"`
}

// Reverse performs a reverse lookup for one address.
func Reverse(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr := r.URL.Query().Get("addr")
		if addr == "" {
			writeError(w, http.StatusBadRequest, "missing addr parameter")
			return
		}

		hostname := d.Resolver.Reverse(r.Context(), addr)
		if hostname == "" {
			writeError(w, http.StatusNotFound, "no hostname found")
			return
		}
		writeJSON(w, http.StatusOK, reverseResponse{Address: addr, Hostname: hostname})
	}
}

type batchRequest struct {
	Hostnames []string `json:"hostnames"`
	Family    string   `json:"family,omitempty"`
}

type batchResponse struct {
	Results map[string]string `json:"results"`
}

// BatchResolve resolves many hostnames concurrently.
func BatchResolve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			d.Logger.Debug("invalid batch request", logger.Error(err))
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Hostnames) == 0 {
			writeError(w, http.StatusBadRequest, "no hostnames given")
			return
		}

		results := d.Resolver.BatchResolve(
			r.Context(),
			req.Hostnames,
			resolve.ParseFamily(req.Family),
			d.ResolveWorkers,
		)
		writeJSON(w, http.StatusOK, batchResponse{Results: results})
	}
}
