package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio/buy", h.HandleBuy)
	r.Post("/portfolio/sell", h.HandleSell)
}
