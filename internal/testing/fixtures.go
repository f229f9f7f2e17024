package testing

import (
	"database/sql"
	"testing"
	"time"

	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/google/uuid"
)

// CreatePortfolio inserts a portfolio with the given starting cash
func CreatePortfolio(t *testing.T, repo *portfolio.PortfolioRepository, cash float64) *portfolio.Portfolio {
	t.Helper()

	p := &portfolio.Portfolio{
		ID:             uuid.NewString(),
		UserID:         uuid.NewString(),
		Name:           "Test",
		InitialBalance: cash,
		CashBalance:    cash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}
	return p
}

// AddPosition inserts a position directly, bypassing the trading engine
func AddPosition(t *testing.T, db *sql.DB, repo *portfolio.PositionRepository, portfolioID, ticker string, qty int64, avgPrice float64) {
	t.Helper()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	now := time.Now().UTC()
	if err := repo.UpsertTx(tx, &portfolio.Position{
		PortfolioID: portfolioID,
		Ticker:      ticker,
		Quantity:    qty,
		AvgPrice:    avgPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		t.Fatalf("Failed to insert test position: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit test position: %v", err)
	}
}
