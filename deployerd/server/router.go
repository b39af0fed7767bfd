package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.MiddlewareLogger)
	r.Post("/api", s.HandlerSubmitTask)
	r.Get("/health", s.HandlerHealth)
	r.Get("/runs/{id}", s.HandlerRunStatus)
	r.Post("/shutdown", s.HandlerShutdown)
	return r
}
