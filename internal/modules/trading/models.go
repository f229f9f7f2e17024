// Package trading implements the trading engine: validated, atomic
// buy/sell execution against a portfolio's cash and positions.
package trading

import (
	"fmt"
	"strings"
	"time"
)

// Side represents the transaction direction (BUY or SELL)
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// IsValid checks if the side is valid
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// SideFromString creates Side from string (case-insensitive)
func SideFromString(value string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return "", fmt.Errorf("invalid side: %q", value)
	}
}

// Transaction is one executed buy or sell: the append-only ledger
// entry. Rows are never updated or deleted after insert.
type Transaction struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	Ticker      string    `json:"ticker"`
	Side        Side      `json:"side"`
	Quantity    int64     `json:"quantity"`
	Price       float64   `json:"price"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// GrossAmount returns quantity × price: the cash moved by this entry.
func (t *Transaction) GrossAmount() float64 {
	return float64(t.Quantity) * t.Price
}

// TradeResult is what the engine returns for an executed trade
type TradeResult struct {
	Transaction Transaction `json:"transaction"`
	CashBalance float64     `json:"cash_balance"`
	// Quantity and AvgPrice of the position after the trade; a fully
	// liquidated position reports Quantity 0.
	PositionQuantity int64   `json:"position_quantity"`
	PositionAvgPrice float64 `json:"position_avg_price"`
	// RealizedPnL is only meaningful for sells
	RealizedPnL float64 `json:"realized_pnl,omitempty"`
}
