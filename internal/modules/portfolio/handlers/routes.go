package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio lifecycle routes.
// Flat patterns: the other modules hang their own routes off the same
// /portfolio prefix.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio", h.HandleCreate)
	r.Get("/portfolio", h.HandleGet)
}
