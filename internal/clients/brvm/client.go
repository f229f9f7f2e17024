// Package brvm provides a client for the exchange market-data service.
package brvm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/rs/zerolog"
)

// Client fetches quotes from the market-data HTTP service.
// It is a synchronous read dependency: every call is bounded by the
// request context, and failures are mapped onto the domain error set so
// the trading engine can fail closed.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new market-data client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "brvm").Logger(),
	}
}

// Compile-time check that Client implements domain.QuoteProvider
var _ domain.QuoteProvider = (*Client)(nil)

// quotePayload is the wire format of the market-data service
type quotePayload struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	AsOf          string  `json:"as_of"` // RFC 3339
}

func (p quotePayload) toQuote() (domain.Quote, error) {
	asOf, err := time.Parse(time.RFC3339, p.AsOf)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("invalid as_of timestamp %q: %w", p.AsOf, err)
	}
	return domain.Quote{
		Ticker:        strings.ToUpper(p.Symbol),
		Price:         p.Price,
		PreviousClose: p.PreviousClose,
		AsOf:          asOf,
	}, nil
}

// GetQuote returns the current quote for one ticker.
// GET /api/quotes/{ticker}
func (c *Client) GetQuote(ctx context.Context, ticker string) (*domain.Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	endpoint := fmt.Sprintf("%s/api/quotes/%s", c.baseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Quote request failed")
		return nil, domain.ErrQuoteUnavailable
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, domain.ErrUnknownTicker
	default:
		c.log.Warn().Int("status", resp.StatusCode).Str("ticker", ticker).Msg("Quote request rejected")
		return nil, domain.ErrQuoteUnavailable
	}

	var payload quotePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to decode quote response")
		return nil, domain.ErrQuoteUnavailable
	}

	quote, err := payload.toQuote()
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Malformed quote payload")
		return nil, domain.ErrQuoteUnavailable
	}

	return &quote, nil
}

// GetQuotes returns quotes for a set of tickers in one round trip.
// GET /api/quotes?symbols=A,B,C
// Tickers the service cannot price are simply absent from the result.
func (c *Client) GetQuotes(ctx context.Context, tickers []string) (map[string]domain.Quote, error) {
	if len(tickers) == 0 {
		return map[string]domain.Quote{}, nil
	}

	normalized := make([]string, 0, len(tickers))
	for _, t := range tickers {
		normalized = append(normalized, strings.ToUpper(strings.TrimSpace(t)))
	}

	endpoint := fmt.Sprintf("%s/api/quotes?symbols=%s",
		c.baseURL, url.QueryEscape(strings.Join(normalized, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build batch quote request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Int("tickers", len(normalized)).Msg("Batch quote request failed")
		return nil, domain.ErrQuoteUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("Batch quote request rejected")
		return nil, domain.ErrQuoteUnavailable
	}

	var payloads []quotePayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		c.log.Warn().Err(err).Msg("Failed to decode batch quote response")
		return nil, domain.ErrQuoteUnavailable
	}

	quotes := make(map[string]domain.Quote, len(payloads))
	for _, p := range payloads {
		quote, err := p.toQuote()
		if err != nil {
			// One malformed entry does not poison the batch
			c.log.Warn().Err(err).Str("ticker", p.Symbol).Msg("Skipping malformed quote")
			continue
		}
		quotes[quote.Ticker] = quote
	}

	return quotes, nil
}
