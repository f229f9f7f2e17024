package testing

import (
	"context"
	"sync"
	"time"

	"github.com/afribourse/tradesim/internal/domain"
)

// MockQuoteProvider is an in-memory implementation of
// domain.QuoteProvider for testing
type MockQuoteProvider struct {
	mu     sync.RWMutex
	prices map[string]float64
	asOf   time.Time
	err    error
}

var _ domain.QuoteProvider = (*MockQuoteProvider)(nil)

// NewMockQuoteProvider creates a new mock quote provider
func NewMockQuoteProvider() *MockQuoteProvider {
	return &MockQuoteProvider{
		prices: make(map[string]float64),
	}
}

// SetPrice sets the quoted price for a ticker
func (m *MockQuoteProvider) SetPrice(ticker string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[ticker] = price
}

// SetAsOf sets the observation time returned with every quote.
// Zero means "now".
func (m *MockQuoteProvider) SetAsOf(asOf time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asOf = asOf
}

// SetError makes every call fail with err
func (m *MockQuoteProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetQuote returns the configured quote for one ticker.
// Tickers without a configured price are unknown.
func (m *MockQuoteProvider) GetQuote(_ context.Context, ticker string) (*domain.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	price, ok := m.prices[ticker]
	if !ok {
		return nil, domain.ErrUnknownTicker
	}

	asOf := m.asOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return &domain.Quote{Ticker: ticker, Price: price, AsOf: asOf}, nil
}

// GetQuotes returns configured quotes for a set of tickers. Tickers
// without a configured price are absent from the result.
func (m *MockQuoteProvider) GetQuotes(_ context.Context, tickers []string) (map[string]domain.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	asOf := m.asOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	quotes := make(map[string]domain.Quote)
	for _, t := range tickers {
		if price, ok := m.prices[t]; ok {
			quotes[t] = domain.Quote{Ticker: t, Price: price, AsOf: asOf}
		}
	}
	return quotes, nil
}
