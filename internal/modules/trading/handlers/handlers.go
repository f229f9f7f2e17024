// Package handlers provides HTTP handlers for trade execution.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/afribourse/tradesim/internal/modules/trading"
	"github.com/rs/zerolog"
)

// TradingEngine is the trade execution contract used by the handlers
type TradingEngine interface {
	Buy(ctx context.Context, portfolioID, ticker string, quantity int64, pricePerShare float64) (*trading.TradeResult, error)
	Sell(ctx context.Context, portfolioID, ticker string, quantity int64, pricePerShare float64) (*trading.TradeResult, error)
}

// PortfolioResolver maps the authenticated user to their portfolio
type PortfolioResolver interface {
	GetByUser(userID string) (*portfolio.Portfolio, error)
}

var (
	_ TradingEngine     = (*trading.Engine)(nil)
	_ PortfolioResolver = (*portfolio.Service)(nil)
)

// Handler handles trading HTTP requests
type Handler struct {
	engine     TradingEngine
	portfolios PortfolioResolver
	log        zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(engine TradingEngine, portfolios PortfolioResolver, log zerolog.Logger) *Handler {
	return &Handler{
		engine:     engine,
		portfolios: portfolios,
		log:        log.With().Str("handler", "trading").Logger(),
	}
}

type tradeRequest struct {
	Ticker        string  `json:"ticker"`
	Quantity      int64   `json:"quantity"`
	PricePerShare float64 `json:"price_per_share"`
}

// HandleBuy executes a buy order for the authenticated user
// POST /api/portfolio/buy
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	h.handleTrade(w, r, h.engine.Buy)
}

// HandleSell executes a sell order for the authenticated user
// POST /api/portfolio/sell
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	h.handleTrade(w, r, h.engine.Sell)
}

type tradeFunc func(ctx context.Context, portfolioID, ticker string, quantity int64, pricePerShare float64) (*trading.TradeResult, error)

func (h *Handler) handleTrade(w http.ResponseWriter, r *http.Request, trade tradeFunc) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.portfolios.GetByUser(userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	result, err := trade(r.Context(), p.ID, req.Ticker, req.Quantity, req.PricePerShare)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses:
// validation 400, not found 404, business rule 422, halted 423,
// dependency 503.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrUnknownTicker):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPortfolioNotFound),
		errors.Is(err, domain.ErrPositionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrStalePrice):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrPortfolioHalted),
		errors.Is(err, domain.ErrIntegrityViolation):
		h.writeError(w, http.StatusLocked, err.Error())
	case errors.Is(err, domain.ErrQuoteUnavailable),
		errors.Is(err, domain.ErrLockTimeout):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("Trade failed")
		h.writeError(w, http.StatusInternalServerError, "trade failed")
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
