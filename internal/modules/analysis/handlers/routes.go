package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all covered-call routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calls/{ticker}", func(r chi.Router) {
		r.Get("/", h.HandleGetCalls)
		r.Get("/curve", h.HandleGetCurve)
		r.Get("/distribution", h.HandleGetDistribution)
	})
	r.Post("/returns", h.HandleCalculateReturns)
}
