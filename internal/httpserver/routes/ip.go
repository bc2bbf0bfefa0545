package routes

import (
	"github.com/go-chi/chi/v5"

	"whatip/internal/httpserver/deps"
	"whatip/internal/httpserver/handlers"
)

func init() { Register(registerIP) }

func registerIP(r chi.Router, d deps.Deps) {
	r.Get("/api/ip", handlers.DetectIP(d))
	r.Get("/api/ip/sequential", handlers.DetectIPSequential(d))
	r.Get("/api/ip/services", handlers.ListServices(d))
	r.Post("/api/ip/services/{name}/test", handlers.TestService(d))
}
