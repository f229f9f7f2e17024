package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/rs/zerolog"
)

// PositionRepository handles position database operations.
// Mutations only happen through the Tx variants, inside the trading
// engine's transaction; everything else is read-only.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

const selectPosition = `
	SELECT portfolio_id, ticker, quantity, avg_price, created_at, updated_at
	FROM positions`

// ListByPortfolio returns all positions in a portfolio
func (r *PositionRepository) ListByPortfolio(portfolioID string) ([]Position, error) {
	rows, err := r.db.Query(selectPosition+" WHERE portfolio_id = ? ORDER BY ticker", portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// GetByTicker returns the position for one ticker
func (r *PositionRepository) GetByTicker(portfolioID, ticker string) (*Position, error) {
	row := r.db.QueryRow(selectPosition+" WHERE portfolio_id = ? AND ticker = ?",
		portfolioID, normalizeTicker(ticker))
	return scanPositionRow(row)
}

// GetByTickerTx loads a position inside an open transaction
func (r *PositionRepository) GetByTickerTx(tx *sql.Tx, portfolioID, ticker string) (*Position, error) {
	row := tx.QueryRow(selectPosition+" WHERE portfolio_id = ? AND ticker = ?",
		portfolioID, normalizeTicker(ticker))
	return scanPositionRow(row)
}

// UpsertTx creates or replaces a position inside an open transaction.
// The (portfolio_id, ticker) primary key makes this the single write
// path for both first buys and weighted-average updates.
func (r *PositionRepository) UpsertTx(tx *sql.Tx, pos *Position) error {
	query := `
		INSERT INTO positions (portfolio_id, ticker, quantity, avg_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (portfolio_id, ticker) DO UPDATE SET
			quantity = excluded.quantity,
			avg_price = excluded.avg_price,
			updated_at = excluded.updated_at
	`

	_, err := tx.Exec(query,
		pos.PortfolioID,
		normalizeTicker(pos.Ticker),
		pos.Quantity,
		pos.AvgPrice,
		pos.CreatedAt.Format(time.RFC3339),
		pos.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	return nil
}

// DeleteTx removes a fully liquidated position inside an open transaction
func (r *PositionRepository) DeleteTx(tx *sql.Tx, portfolioID, ticker string) error {
	result, err := tx.Exec("DELETE FROM positions WHERE portfolio_id = ? AND ticker = ?",
		portfolioID, normalizeTicker(ticker))
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrPositionNotFound
	}
	return nil
}

func scanPosition(rows *sql.Rows) (Position, error) {
	var pos Position
	var createdAt, updatedAt string

	if err := rows.Scan(&pos.PortfolioID, &pos.Ticker, &pos.Quantity, &pos.AvgPrice, &createdAt, &updatedAt); err != nil {
		return Position{}, fmt.Errorf("failed to scan position: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		pos.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		pos.UpdatedAt = t
	}

	return pos, nil
}

func scanPositionRow(row *sql.Row) (*Position, error) {
	var pos Position
	var createdAt, updatedAt string

	err := row.Scan(&pos.PortfolioID, &pos.Ticker, &pos.Quantity, &pos.AvgPrice, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		pos.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		pos.UpdatedAt = t
	}

	return &pos, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
