// Package handlers provides HTTP handlers for portfolio reporting.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/afribourse/tradesim/internal/modules/reporting"
	"github.com/afribourse/tradesim/internal/modules/trading"
	"github.com/afribourse/tradesim/internal/modules/valuation"
	"github.com/rs/zerolog"
)

// ReportingService is the read-only reporting contract used by the
// handlers
type ReportingService interface {
	Statement(portfolioID string) ([]trading.Transaction, error)
	Positions(ctx context.Context, portfolioID string) (*reporting.PositionReport, error)
	ValueHistory(portfolioID string) ([]valuation.Snapshot, error)
}

// PortfolioResolver maps the authenticated user to their portfolio
type PortfolioResolver interface {
	GetByUser(userID string) (*portfolio.Portfolio, error)
}

var (
	_ ReportingService  = (*reporting.Service)(nil)
	_ PortfolioResolver = (*portfolio.Service)(nil)
)

// Handler handles reporting HTTP requests
type Handler struct {
	service    ReportingService
	portfolios PortfolioResolver
	log        zerolog.Logger
}

// NewHandler creates a new reporting handler
func NewHandler(service ReportingService, portfolios PortfolioResolver, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		portfolios: portfolios,
		log:        log.With().Str("handler", "reporting").Logger(),
	}
}

// HandleTransactions returns the transaction statement, most recent
// first
// GET /api/portfolio/transactions
func (h *Handler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePortfolio(w, r)
	if !ok {
		return
	}

	statement, err := h.service.Statement(p.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if statement == nil {
		statement = []trading.Transaction{}
	}

	h.writeJSON(w, http.StatusOK, statement)
}

// HandlePositions returns the unrealized P&L report
// GET /api/portfolio/positions
func (h *Handler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePortfolio(w, r)
	if !ok {
		return
	}

	report, err := h.service.Positions(r.Context(), p.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// HandleHistory returns the daily snapshot series ascending by date
// GET /api/portfolio/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.resolvePortfolio(w, r)
	if !ok {
		return
	}

	history, err := h.service.ValueHistory(p.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if history == nil {
		history = []valuation.Snapshot{}
	}

	h.writeJSON(w, http.StatusOK, history)
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
	default:
		h.log.Error().Err(err).Msg("Report failed")
		h.writeError(w, http.StatusInternalServerError, "report failed")
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
