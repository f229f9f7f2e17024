// Package domain holds models and interfaces shared across modules.
package domain

import (
	"context"
	"time"
)

// Quote is a current price observation for a ticker, supplied by the
// exchange's market-data service.
type Quote struct {
	Ticker        string    `json:"ticker"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	AsOf          time.Time `json:"as_of"`
}

// Age returns how old the quote is relative to now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.AsOf)
}

// QuoteProvider is the market-data collaborator. The ledger core only
// ever reads from it, synchronously, with a bounded timeout.
type QuoteProvider interface {
	// GetQuote returns the current quote for one ticker.
	// Returns ErrUnknownTicker for symbols the exchange does not list.
	GetQuote(ctx context.Context, ticker string) (*Quote, error)

	// GetQuotes returns quotes for a set of tickers in one round trip.
	// Tickers without an available quote are absent from the result;
	// the call only fails if the provider itself is unreachable.
	GetQuotes(ctx context.Context, tickers []string) (map[string]Quote, error)
}
