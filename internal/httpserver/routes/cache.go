package routes

import (
	"github.com/go-chi/chi/v5"

	"whatip/internal/httpserver/deps"
	"whatip/internal/httpserver/handlers"
)

func init() { Register(registerCache) }

func registerCache(r chi.Router, d deps.Deps) {
	r.Get("/api/cache", handlers.CacheStats(d))
	r.Delete("/api/cache", handlers.ClearCache(d))
}
