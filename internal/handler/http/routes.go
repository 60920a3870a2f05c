package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Get("/api/ping", h.ping)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/api/records/{table}", h.fetchRecords)
		r.Put("/api/records/{table}", h.upsertRecord)
		r.Delete("/api/records/{table}/{id}", h.deleteRecord)

		r.Get("/api/realtime", h.realtime)
	})

	return router
}
