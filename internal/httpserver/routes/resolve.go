package routes

import (
	"github.com/go-chi/chi/v5"

	"whatip/internal/httpserver/deps"
	"whatip/internal/httpserver/handlers"
)

func init() { Register(registerResolve) }

func registerResolve(r chi.Router, d deps.Deps) {
	r.Get("/api/resolve", handlers.Resolve(d))
	r.Get("/api/resolve/all", handlers.ResolveAll(d))
	r.Post("/api/resolve/batch", handlers.BatchResolve(d))
	r.Get("/api/reverse", handlers.Reverse(d))
}
