// Package handlers provides HTTP handlers for portfolio valuation.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/afribourse/tradesim/internal/modules/valuation"
	"github.com/rs/zerolog"
)

// ValuationService is the valuation contract used by the handlers
type ValuationService interface {
	ComputeValue(ctx context.Context, portfolioID string) (*valuation.Valuation, error)
	Snapshot(ctx context.Context, portfolioID, date string) (*valuation.Snapshot, error)
}

// PortfolioResolver maps the authenticated user to their portfolio
type PortfolioResolver interface {
	GetByUser(userID string) (*portfolio.Portfolio, error)
}

var (
	_ ValuationService  = (*valuation.Service)(nil)
	_ PortfolioResolver = (*portfolio.Service)(nil)
)

// Handler handles valuation HTTP requests
type Handler struct {
	service    ValuationService
	portfolios PortfolioResolver
	log        zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(service ValuationService, portfolios PortfolioResolver, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		portfolios: portfolios,
		log:        log.With().Str("handler", "valuation").Logger(),
	}
}

// HandleValue returns the current mark-to-market value
// GET /api/portfolio/value
func (h *Handler) HandleValue(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePortfolio(w, r)
	if !ok {
		return
	}

	v, err := h.service.ComputeValue(r.Context(), p.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, v)
}

// HandleSnapshot captures an on-demand snapshot for today
// POST /api/portfolio/snapshot
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePortfolio(w, r)
	if !ok {
		return
	}

	s, err := h.service.Snapshot(r.Context(), p.ID, "")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) resolvePortfolio(w http.ResponseWriter, r *http.Request) (*portfolio.Portfolio, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return nil, false
	}

	p, err := h.portfolios.GetByUser(userID)
	if err != nil {
		h.writeDomainError(w, err)
		return nil, false
	}
	return p, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPortfolioNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrQuoteUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("Valuation failed")
		h.writeError(w, http.StatusInternalServerError, "valuation failed")
	}
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
