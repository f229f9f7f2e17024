// Package handlers provides HTTP handlers for portfolio lifecycle.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// PortfolioService is the portfolio lifecycle contract used by the
// handlers
type PortfolioService interface {
	Create(userID, name string) (*portfolio.Portfolio, error)
	GetWithPositions(userID string) (*portfolio.Portfolio, []portfolio.Position, error)
}

var _ PortfolioService = (*portfolio.Service)(nil)

// Handler handles portfolio HTTP requests
type Handler struct {
	service PortfolioService
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service PortfolioService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

type createRequest struct {
	Name string `json:"name"`
}

// HandleCreate opens a portfolio for the authenticated user
// POST /api/portfolio
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}

	var req createRequest
	if r.Body != nil {
		// Body is optional; an empty one gets the default name
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	p, err := h.service.Create(userID, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrPortfolioExists) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to create portfolio")
		h.writeError(w, http.StatusInternalServerError, "failed to create portfolio")
		return
	}

	h.writeJSON(w, http.StatusCreated, p)
}

// HandleGet returns the user's portfolio with its current holdings
// GET /api/portfolio
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}

	p, positions, err := h.service.GetWithPositions(userID)
	if err != nil {
		if errors.Is(err, domain.ErrPortfolioNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to load portfolio")
		h.writeError(w, http.StatusInternalServerError, "failed to load portfolio")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio": p,
		"positions": positions,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
