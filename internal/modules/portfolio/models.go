// Package portfolio manages simulated portfolios and their positions.
package portfolio

import "time"

// Portfolio is one investor's simulated account. Each user has at most
// one active portfolio. The cash balance is only ever mutated by the
// trading engine, inside the same transaction as the position change
// and the ledger entry.
type Portfolio struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	InitialBalance float64    `json:"initial_balance"`
	CashBalance    float64    `json:"cash_balance"`
	HaltedAt       *time.Time `json:"halted_at,omitempty"` // Set on detected integrity violation
	CreatedAt      time.Time  `json:"created_at"`
}

// Halted reports whether writes to this portfolio are blocked pending
// manual reconciliation.
func (p *Portfolio) Halted() bool {
	return p.HaltedAt != nil
}

// Position is a current holding in one ticker: quantity plus the
// weighted average cost of the shares still held. A row only exists
// while quantity > 0; full liquidation deletes it.
type Position struct {
	PortfolioID string    `json:"portfolio_id"`
	Ticker      string    `json:"ticker"`
	Quantity    int64     `json:"quantity"`
	AvgPrice    float64   `json:"avg_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CostBasis returns the total acquisition cost of the held shares.
func (p *Position) CostBasis() float64 {
	return float64(p.Quantity) * p.AvgPrice
}
