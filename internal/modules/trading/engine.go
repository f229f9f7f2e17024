package trading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/events"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PortfolioStore is the slice of the ledger store the engine needs for
// portfolio rows. Tx methods run inside the engine's transaction; Halt
// runs outside it so the halt survives the rollback.
type PortfolioStore interface {
	GetByIDTx(tx *sql.Tx, id string) (*portfolio.Portfolio, error)
	UpdateCashTx(tx *sql.Tx, id string, balance float64) error
	Halt(id string, at time.Time) error
}

// PositionStore is the slice of the ledger store the engine needs for
// position rows
type PositionStore interface {
	GetByTickerTx(tx *sql.Tx, portfolioID, ticker string) (*portfolio.Position, error)
	UpsertTx(tx *sql.Tx, pos *portfolio.Position) error
	DeleteTx(tx *sql.Tx, portfolioID, ticker string) error
}

// TransactionStore appends ledger entries
type TransactionStore interface {
	CreateTx(tx *sql.Tx, t *Transaction) error
}

// TxBeginner opens the database transaction the whole trade executes in
type TxBeginner interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
}

// Locker serializes trades per portfolio
type Locker interface {
	Acquire(ctx context.Context, key string) error
	Release(key string)
}

// Compile-time checks against the concrete implementations
var (
	_ PortfolioStore   = (*portfolio.PortfolioRepository)(nil)
	_ PositionStore    = (*portfolio.PositionRepository)(nil)
	_ TransactionStore = (*TransactionRepository)(nil)
)

// Config holds trading engine tunables
type Config struct {
	// PriceTolerance is the max relative deviation between the
	// submitted price and the live quote before the trade is rejected.
	PriceTolerance float64
	// MaxQuoteAge is how old a quote may be and still count as fresh.
	MaxQuoteAge time.Duration
	// QuoteTimeout bounds the quote round trip; on expiry the trade
	// fails closed with ErrQuoteUnavailable.
	QuoteTimeout time.Duration
	// LockTimeout bounds the wait for the per-portfolio lock.
	LockTimeout time.Duration
}

// Engine validates and executes buy/sell intents. Every trade runs
// under the portfolio's lock and inside a single database transaction:
// cash debit/credit, position upsert/delete and the ledger entry either
// all commit or none do.
type Engine struct {
	cfg              Config
	db               TxBeginner
	portfolioStore   PortfolioStore
	positionStore    PositionStore
	transactionStore TransactionStore
	quotes           domain.QuoteProvider
	locks            Locker
	eventManager     *events.Manager
	log              zerolog.Logger
}

// NewEngine creates a new trading engine
func NewEngine(
	cfg Config,
	db TxBeginner,
	portfolioStore PortfolioStore,
	positionStore PositionStore,
	transactionStore TransactionStore,
	quotes domain.QuoteProvider,
	locks Locker,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		cfg:              cfg,
		db:               db,
		portfolioStore:   portfolioStore,
		positionStore:    positionStore,
		transactionStore: transactionStore,
		quotes:           quotes,
		locks:            locks,
		eventManager:     eventManager,
		log:              log.With().Str("service", "trading").Logger(),
	}
}

// Buy purchases quantity shares of ticker at pricePerShare.
// The submitted price is verified against a fresh quote before any
// state is touched; with no quote available the trade fails closed.
func (e *Engine) Buy(ctx context.Context, portfolioID, ticker string, quantity int64, pricePerShare float64) (*TradeResult, error) {
	return e.execute(ctx, portfolioID, ticker, SideBuy, quantity, pricePerShare)
}

// Sell sells quantity shares of ticker at pricePerShare.
// Selling never changes the average buy price of the remaining shares;
// selling the full quantity deletes the position row.
func (e *Engine) Sell(ctx context.Context, portfolioID, ticker string, quantity int64, pricePerShare float64) (*TradeResult, error) {
	return e.execute(ctx, portfolioID, ticker, SideSell, quantity, pricePerShare)
}

func (e *Engine) execute(ctx context.Context, portfolioID, ticker string, side Side, quantity int64, pricePerShare float64) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if pricePerShare <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, domain.ErrUnknownTicker
	}

	// Price verification happens before any lock or transaction: it
	// touches no state, so there is nothing to roll back on rejection.
	if err := e.verifyPrice(ctx, ticker, pricePerShare); err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, e.cfg.LockTimeout)
	defer cancel()
	if err := e.locks.Acquire(lockCtx, portfolioID); err != nil {
		return nil, err
	}
	defer e.locks.Release(portfolioID)

	result, err := e.executeLocked(ctx, portfolioID, ticker, side, quantity, pricePerShare)
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("portfolio_id", portfolioID).
		Str("ticker", ticker).
		Str("side", string(side)).
		Int64("quantity", quantity).
		Float64("price", pricePerShare).
		Float64("cash_balance", result.CashBalance).
		Msg("Trade executed")

	e.eventManager.Emit(events.TradeExecuted, "trading", map[string]interface{}{
		"portfolio_id": portfolioID,
		"ticker":       ticker,
		"side":         string(side),
		"quantity":     quantity,
		"price":        pricePerShare,
	})

	return result, nil
}

func (e *Engine) executeLocked(ctx context.Context, portfolioID, ticker string, side Side, quantity int64, pricePerShare float64) (*TradeResult, error) {
	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p, err := e.portfolioStore.GetByIDTx(tx, portfolioID)
	if err != nil {
		return nil, err
	}
	if p.Halted() {
		return nil, domain.ErrPortfolioHalted
	}
	if p.CashBalance < 0 {
		return nil, e.integrityHalt(portfolioID, fmt.Sprintf("negative cash balance %.2f", p.CashBalance))
	}

	pos, err := e.positionStore.GetByTickerTx(tx, portfolioID, ticker)
	if err != nil && !errors.Is(err, domain.ErrPositionNotFound) {
		return nil, err
	}
	if pos != nil && pos.Quantity <= 0 {
		return nil, e.integrityHalt(portfolioID, fmt.Sprintf("position %s has non-positive quantity %d", ticker, pos.Quantity))
	}

	now := time.Now().UTC()
	var result *TradeResult

	switch side {
	case SideBuy:
		result, err = e.applyBuy(tx, p, pos, ticker, quantity, pricePerShare, now)
	case SideSell:
		result, err = e.applySell(tx, p, pos, ticker, quantity, pricePerShare, now)
	default:
		err = fmt.Errorf("invalid side: %q", side)
	}
	if err != nil {
		return nil, err
	}

	entry := Transaction{
		ID:          uuid.NewString(),
		PortfolioID: portfolioID,
		Ticker:      ticker,
		Side:        side,
		Quantity:    quantity,
		Price:       pricePerShare,
		ExecutedAt:  now,
	}
	if err := e.transactionStore.CreateTx(tx, &entry); err != nil {
		return nil, err
	}
	result.Transaction = entry

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit trade: %w", err)
	}
	committed = true

	return result, nil
}

// applyBuy debits cash and folds the purchase into the weighted
// average: newAvg = (oldQty×oldAvg + qty×price) / (oldQty + qty).
func (e *Engine) applyBuy(tx *sql.Tx, p *portfolio.Portfolio, pos *portfolio.Position, ticker string, quantity int64, price float64, now time.Time) (*TradeResult, error) {
	totalCost := float64(quantity) * price
	if totalCost > p.CashBalance {
		return nil, domain.ErrInsufficientFunds
	}

	newPos := portfolio.Position{
		PortfolioID: p.ID,
		Ticker:      ticker,
		Quantity:    quantity,
		AvgPrice:    price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if pos != nil {
		newPos.Quantity = pos.Quantity + quantity
		newPos.AvgPrice = (float64(pos.Quantity)*pos.AvgPrice + totalCost) / float64(newPos.Quantity)
		newPos.CreatedAt = pos.CreatedAt
	}

	if err := e.positionStore.UpsertTx(tx, &newPos); err != nil {
		return nil, err
	}

	newBalance := p.CashBalance - totalCost
	if err := e.portfolioStore.UpdateCashTx(tx, p.ID, newBalance); err != nil {
		return nil, err
	}

	return &TradeResult{
		CashBalance:      newBalance,
		PositionQuantity: newPos.Quantity,
		PositionAvgPrice: newPos.AvgPrice,
	}, nil
}

// applySell credits the proceeds and reduces or deletes the position.
// Realized P&L is computed against the average buy price at the time
// of sale.
func (e *Engine) applySell(tx *sql.Tx, p *portfolio.Portfolio, pos *portfolio.Position, ticker string, quantity int64, price float64, now time.Time) (*TradeResult, error) {
	if pos == nil {
		return nil, domain.ErrPositionNotFound
	}
	if quantity > pos.Quantity {
		return nil, domain.ErrInsufficientShares
	}

	proceeds := float64(quantity) * price
	realizedPnL := float64(quantity) * (price - pos.AvgPrice)

	newQty := pos.Quantity - quantity
	if newQty == 0 {
		if err := e.positionStore.DeleteTx(tx, p.ID, ticker); err != nil {
			return nil, err
		}
	} else {
		updated := *pos
		updated.Quantity = newQty
		updated.UpdatedAt = now
		if err := e.positionStore.UpsertTx(tx, &updated); err != nil {
			return nil, err
		}
	}

	newBalance := p.CashBalance + proceeds
	if err := e.portfolioStore.UpdateCashTx(tx, p.ID, newBalance); err != nil {
		return nil, err
	}

	return &TradeResult{
		CashBalance:      newBalance,
		PositionQuantity: newQty,
		PositionAvgPrice: pos.AvgPrice,
		RealizedPnL:      realizedPnL,
	}, nil
}

// verifyPrice checks the submitted price against a fresh quote.
// The client supplies the price it saw; accepting it unverified would
// let a stale or forged price buy below market.
func (e *Engine) verifyPrice(ctx context.Context, ticker string, price float64) error {
	quoteCtx, cancel := context.WithTimeout(ctx, e.cfg.QuoteTimeout)
	defer cancel()

	quote, err := e.quotes.GetQuote(quoteCtx, ticker)
	if err != nil {
		return err
	}

	if quote.Price <= 0 {
		return domain.ErrQuoteUnavailable
	}
	if e.cfg.MaxQuoteAge > 0 && quote.Age(time.Now()) > e.cfg.MaxQuoteAge {
		return domain.ErrStalePrice
	}

	deviation := math.Abs(price-quote.Price) / quote.Price
	if deviation > e.cfg.PriceTolerance {
		e.log.Warn().
			Str("ticker", ticker).
			Float64("submitted", price).
			Float64("quoted", quote.Price).
			Float64("deviation", deviation).
			Msg("Submitted price rejected against live quote")
		return domain.ErrStalePrice
	}

	return nil
}

// integrityHalt blocks further writes to a portfolio whose stored
// state violates a ledger invariant. This indicates a bug, not a user
// error; the portfolio stays halted until manually reconciled.
func (e *Engine) integrityHalt(portfolioID, reason string) error {
	e.log.Error().
		Str("portfolio_id", portfolioID).
		Str("reason", reason).
		Bool("critical", true).
		Msg("Ledger integrity violation")

	if err := e.portfolioStore.Halt(portfolioID, time.Now().UTC()); err != nil {
		e.log.Error().Err(err).Str("portfolio_id", portfolioID).Msg("Failed to persist halt")
	}

	e.eventManager.Emit(events.PortfolioHalted, "trading", map[string]interface{}{
		"portfolio_id": portfolioID,
		"reason":       reason,
	})

	return domain.ErrIntegrityViolation
}
