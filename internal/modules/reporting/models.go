package reporting

// PositionLine is one row of the position report. PriceUnavailable
// marks a row with no live quote: current price falls back to the
// average buy price and unrealized P&L reads 0.
type PositionLine struct {
	Ticker           string  `json:"ticker"`
	Quantity         int64   `json:"quantity"`
	AvgPrice         float64 `json:"avg_price"`
	CurrentPrice     float64 `json:"current_price"`
	PriceUnavailable bool    `json:"price_unavailable"`

	InvestedValue    float64 `json:"invested_value"`
	MarketValue      float64 `json:"market_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
}

// ReportTotals aggregates the position report
type ReportTotals struct {
	InvestedValue float64 `json:"invested_value"`
	MarketValue   float64 `json:"market_value"`
	GainLoss      float64 `json:"gain_loss"`
	GainLossPct   float64 `json:"gain_loss_pct"`
}

// PositionReport is the full unrealized P&L view of a portfolio
type PositionReport struct {
	PortfolioID string         `json:"portfolio_id"`
	Positions   []PositionLine `json:"positions"`
	Totals      ReportTotals   `json:"totals"`
	// Partial is set when at least one row has no live quote
	Partial bool `json:"partial"`
}
