package valuation

import "time"

// Valuation is a mark-to-market view of a portfolio at a point in time.
// Partial is set when at least one position had no live quote and was
// valued at its average buy price instead.
type Valuation struct {
	PortfolioID    string          `json:"portfolio_id"`
	TotalValue     float64         `json:"total_value"`
	CashBalance    float64         `json:"cash_balance"`
	PositionsValue float64         `json:"positions_value"`
	Partial        bool            `json:"partial"`
	Positions      []PositionValue `json:"positions"`
	AsOf           time.Time       `json:"as_of"`
}

// PositionValue is the mark-to-market value of a single position
type PositionValue struct {
	Ticker       string  `json:"ticker"`
	Quantity     int64   `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	// QuoteMissing marks a row priced at avg_price for lack of a quote
	QuoteMissing bool    `json:"quote_missing"`
}

// Snapshot is one persisted end-of-day valuation.
// (portfolio_id, date) is unique; a same-day recapture supersedes.
type Snapshot struct {
	PortfolioID    string    `json:"portfolio_id"`
	Date           string    `json:"date"`
	TotalValue     float64   `json:"total_value"`
	CashBalance    float64   `json:"cash_balance"`
	PositionsValue float64   `json:"positions_value"`
	Partial        bool      `json:"partial"`
	CapturedAt     time.Time `json:"captured_at"`
}
