package reporting

import (
	"context"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/afribourse/tradesim/internal/modules/trading"
	"github.com/afribourse/tradesim/internal/modules/valuation"
	"github.com/rs/zerolog"
)

// PortfolioReader checks portfolio existence for the read endpoints
type PortfolioReader interface {
	GetByID(id string) (*portfolio.Portfolio, error)
}

// PositionReader lists the positions to report on
type PositionReader interface {
	ListByPortfolio(portfolioID string) ([]portfolio.Position, error)
}

// TransactionReader reads the append-only ledger
type TransactionReader interface {
	ListByPortfolio(portfolioID string) ([]trading.Transaction, error)
}

// SnapshotReader reads the daily value series
type SnapshotReader interface {
	ListByPortfolio(portfolioID string) ([]valuation.Snapshot, error)
}

// Compile-time checks against the concrete implementations
var (
	_ PortfolioReader   = (*portfolio.PortfolioRepository)(nil)
	_ PositionReader    = (*portfolio.PositionRepository)(nil)
	_ TransactionReader = (*trading.TransactionRepository)(nil)
	_ SnapshotReader    = (*valuation.SnapshotRepository)(nil)
)

// Service is the read-only reporting side of the ledger. It never
// mutates state; a failed quote degrades a row, never the request.
type Service struct {
	portfolios   PortfolioReader
	positions    PositionReader
	transactions TransactionReader
	snapshots    SnapshotReader
	quotes       domain.QuoteProvider
	log          zerolog.Logger
}

// NewService creates a new reporting service
func NewService(
	portfolios PortfolioReader,
	positions PositionReader,
	transactions TransactionReader,
	snapshots SnapshotReader,
	quotes domain.QuoteProvider,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolios:   portfolios,
		positions:    positions,
		transactions: transactions,
		snapshots:    snapshots,
		quotes:       quotes,
		log:          log.With().Str("service", "reporting").Logger(),
	}
}

// Statement returns the portfolio's transactions, most recent first
func (s *Service) Statement(portfolioID string) ([]trading.Transaction, error) {
	if _, err := s.portfolios.GetByID(portfolioID); err != nil {
		return nil, err
	}
	return s.transactions.ListByPortfolio(portfolioID)
}

// ValueHistory returns the snapshot series ascending by date, for
// charting
func (s *Service) ValueHistory(portfolioID string) ([]valuation.Snapshot, error) {
	if _, err := s.portfolios.GetByID(portfolioID); err != nil {
		return nil, err
	}
	return s.snapshots.ListByPortfolio(portfolioID)
}

// Positions builds the unrealized P&L report with one batched quote
// round trip. A ticker with no quote is reported at cost and marked
// PriceUnavailable; it never blocks the remaining rows.
func (s *Service) Positions(ctx context.Context, portfolioID string) (*PositionReport, error) {
	if _, err := s.portfolios.GetByID(portfolioID); err != nil {
		return nil, err
	}

	positions, err := s.positions.ListByPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}

	report := &PositionReport{
		PortfolioID: portfolioID,
		Positions:   make([]PositionLine, 0, len(positions)),
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
				Msg("Quote batch failed, reporting positions at cost")
			quotes = nil
		}
	}

	for _, pos := range positions {
		line := PositionLine{
			Ticker:        pos.Ticker,
			Quantity:      pos.Quantity,
			AvgPrice:      pos.AvgPrice,
			InvestedValue: float64(pos.Quantity) * pos.AvgPrice,
		}

		if quote, ok := quotes[pos.Ticker]; ok && quote.Price > 0 {
			line.CurrentPrice = quote.Price
		} else {
			line.CurrentPrice = pos.AvgPrice
			line.PriceUnavailable = true
			report.Partial = true
		}

		line.MarketValue = float64(line.Quantity) * line.CurrentPrice
		line.UnrealizedPnL = line.MarketValue - line.InvestedValue
		if line.InvestedValue > 0 {
			line.UnrealizedPnLPct = line.UnrealizedPnL / line.InvestedValue * 100
		}

		report.Totals.InvestedValue += line.InvestedValue
		report.Totals.MarketValue += line.MarketValue
		report.Positions = append(report.Positions, line)
	}

	report.Totals.GainLoss = report.Totals.MarketValue - report.Totals.InvestedValue
	if report.Totals.InvestedValue > 0 {
		report.Totals.GainLossPct = report.Totals.GainLoss / report.Totals.InvestedValue * 100
	}

	return report, nil
}
