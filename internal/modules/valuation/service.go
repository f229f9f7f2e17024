package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/events"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// PortfolioReader loads portfolio rows for valuation
type PortfolioReader interface {
	GetByID(id string) (*portfolio.Portfolio, error)
	ListIDs() ([]string, error)
}

// PositionReader lists the positions to mark to market
type PositionReader interface {
	ListByPortfolio(portfolioID string) ([]portfolio.Position, error)
}

// SnapshotStore persists end-of-day valuations
type SnapshotStore interface {
	Upsert(s *Snapshot) error
	ListByPortfolio(portfolioID string) ([]Snapshot, error)
}

// Compile-time checks against the concrete implementations
var (
	_ PortfolioReader = (*portfolio.PortfolioRepository)(nil)
	_ PositionReader  = (*portfolio.PositionRepository)(nil)
	_ SnapshotStore   = (*SnapshotRepository)(nil)
)

// Service marks portfolios to market and captures daily snapshots.
// Valuation is read-only and fails soft: a missing quote values the
// position at its average buy price and flags the result as partial,
// unlike the trading engine which fails closed.
type Service struct {
	portfolios   PortfolioReader
	positions    PositionReader
	snapshots    SnapshotStore
	quotes       domain.QuoteProvider
	eventManager *events.Manager
	marketTZ     *time.Location
	log          zerolog.Logger
}

// NewService creates a new valuation service. marketTZ determines which
// calendar day a snapshot belongs to.
func NewService(
	portfolios PortfolioReader,
	positions PositionReader,
	snapshots SnapshotStore,
	quotes domain.QuoteProvider,
	eventManager *events.Manager,
	marketTZ *time.Location,
	log zerolog.Logger,
) *Service {
	if marketTZ == nil {
		marketTZ = time.UTC
	}
	return &Service{
		portfolios:   portfolios,
		positions:    positions,
		snapshots:    snapshots,
		quotes:       quotes,
		eventManager: eventManager,
		marketTZ:     marketTZ,
		log:          log.With().Str("service", "valuation").Logger(),
	}
}

// ComputeValue marks a portfolio to market with one batched quote
// round trip
func (s *Service) ComputeValue(ctx context.Context, portfolioID string) (*Valuation, error) {
	p, err := s.portfolios.GetByID(portfolioID)
	if err != nil {
		return nil, err
	}

	positions, err := s.positions.ListByPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}

	v := &Valuation{
		PortfolioID: p.ID,
		CashBalance: p.CashBalance,
		Positions:   make([]PositionValue, 0, len(positions)),
		AsOf:        time.Now().UTC(),
	}

	var quotes map[string]domain.Quote
	if len(positions) > 0 {
		tickers := make([]string, len(positions))
		for i, pos := range positions {
			tickers[i] = pos.Ticker
		}
		quotes, err = s.quotes.GetQuotes(ctx, tickers)
		if err != nil {
			s.log.Warn().Err(err).
				Str("portfolio_id", portfolioID).
				Msg("Quote batch failed, valuing positions at cost")
			quotes = nil
		}
	}

	for _, pos := range positions {
		pv := PositionValue{
			Ticker:   pos.Ticker,
			Quantity: pos.Quantity,
			AvgPrice: pos.AvgPrice,
		}

		if quote, ok := quotes[pos.Ticker]; ok && quote.Price > 0 {
			pv.CurrentPrice = quote.Price
		} else {
			pv.CurrentPrice = pos.AvgPrice
			pv.QuoteMissing = true
			v.Partial = true
		}
		pv.MarketValue = float64(pv.Quantity) * pv.CurrentPrice

		v.PositionsValue += pv.MarketValue
		v.Positions = append(v.Positions, pv)
	}

	v.TotalValue = v.CashBalance + v.PositionsValue

	return v, nil
}

// Snapshot captures a valuation under the given date, replacing any
// earlier capture for that date. An empty date means today in the
// market's timezone.
func (s *Service) Snapshot(ctx context.Context, portfolioID, date string) (*Snapshot, error) {
	if date == "" {
		date = time.Now().In(s.marketTZ).Format("2006-01-02")
	}

	v, err := s.ComputeValue(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		PortfolioID:    portfolioID,
		Date:           date,
		TotalValue:     v.TotalValue,
		CashBalance:    v.CashBalance,
		PositionsValue: v.PositionsValue,
		Partial:        v.Partial,
		CapturedAt:     time.Now().UTC(),
	}

	if err := s.snapshots.Upsert(snapshot); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("portfolio_id", portfolioID).
		Str("date", date).
		Float64("total_value", snapshot.TotalValue).
		Bool("partial", snapshot.Partial).
		Msg("Snapshot captured")

	s.eventManager.Emit(events.SnapshotCaptured, "valuation", map[string]interface{}{
		"portfolio_id": portfolioID,
		"date":         date,
		"total_value":  snapshot.TotalValue,
	})

	return snapshot, nil
}

// SnapshotAll sweeps every portfolio. Per-portfolio failures are
// logged and skipped so one bad portfolio never aborts the sweep.
func (s *Service) SnapshotAll(ctx context.Context) (captured, failed int, err error) {
	ids, err := s.portfolios.ListIDs()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list portfolios for snapshot sweep: %w", err)
	}

	for _, id := range ids {
		if _, err := s.Snapshot(ctx, id, ""); err != nil {
			s.log.Error().Err(err).Str("portfolio_id", id).Msg("Snapshot failed")
			failed++
			continue
		}
		captured++
	}

	return captured, failed, nil
}
