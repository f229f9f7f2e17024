package trading

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// executedAtLayout is RFC 3339 with fixed-width nanoseconds, in UTC.
// Fixed width keeps lexical order identical to chronological order, so
// ORDER BY executed_at holds same-second entries in execution order
// (RFC3339Nano trims trailing zeros and breaks that property).
const executedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// TransactionRepository handles ledger entry persistence.
// The transactions table is append-only: this repository exposes
// Create plus reads, and nothing else.
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transaction").Logger(),
	}
}

// CreateTx inserts a ledger entry inside an open transaction, as part
// of the same atomic unit as the cash and position mutation.
func (r *TransactionRepository) CreateTx(tx *sql.Tx, t *Transaction) error {
	query := `
		INSERT INTO transactions (id, portfolio_id, ticker, side, quantity, price, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		t.ID,
		t.PortfolioID,
		t.Ticker,
		string(t.Side),
		t.Quantity,
		t.Price,
		t.ExecutedAt.UTC().Format(executedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// ListByPortfolio returns a portfolio's ledger entries, most recent first
func (r *TransactionRepository) ListByPortfolio(portfolioID string) ([]Transaction, error) {
	query := `
		SELECT id, portfolio_id, ticker, side, quantity, price, executed_at
		FROM transactions
		WHERE portfolio_id = ?
		ORDER BY executed_at DESC, id DESC
	`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var t Transaction
		var side, executedAt string

		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.Ticker, &side, &t.Quantity, &t.Price, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		t.Side = Side(side)
		if ts, err := time.Parse(time.RFC3339Nano, executedAt); err == nil {
			t.ExecutedAt = ts
		}

		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
