package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all valuation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio/value", h.HandleValue)
	r.Post("/portfolio/snapshot", h.HandleSnapshot)
}
