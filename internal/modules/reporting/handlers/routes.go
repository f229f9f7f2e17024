package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all reporting routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio/positions", h.HandlePositions)
	r.Get("/portfolio/transactions", h.HandleTransactions)
	r.Get("/portfolio/history", h.HandleHistory)
}
