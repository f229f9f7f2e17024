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

// PortfolioRepository handles portfolio database operations
type PortfolioRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// Create inserts a new portfolio row.
// The UNIQUE constraint on user_id enforces one portfolio per user;
// violations surface as domain.ErrPortfolioExists.
func (r *PortfolioRepository) Create(p *Portfolio) error {
	query := `
		INSERT INTO portfolios (id, user_id, name, initial_balance, cash_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		p.ID,
		p.UserID,
		p.Name,
		p.InitialBalance,
		p.CashBalance,
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPortfolioExists
		}
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	r.log.Info().
		Str("portfolio_id", p.ID).
		Str("user_id", p.UserID).
		Float64("initial_balance", p.InitialBalance).
		Msg("Portfolio created")

	return nil
}

// GetByID returns a portfolio by id
func (r *PortfolioRepository) GetByID(id string) (*Portfolio, error) {
	row := r.db.QueryRow(selectPortfolio+" WHERE id = ?", id)
	return scanPortfolio(row)
}

// GetByUser returns the portfolio owned by a user
func (r *PortfolioRepository) GetByUser(userID string) (*Portfolio, error) {
	row := r.db.QueryRow(selectPortfolio+" WHERE user_id = ?", userID)
	return scanPortfolio(row)
}

// ListIDs returns the ids of all portfolios, for the snapshot sweep
func (r *PortfolioRepository) ListIDs() ([]string, error) {
	rows, err := r.db.Query("SELECT id FROM portfolios ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return ids, nil
}

// GetByIDTx loads a portfolio inside an open transaction. Used by the
// trading engine so the balance it validates against is the balance it
// mutates.
func (r *PortfolioRepository) GetByIDTx(tx *sql.Tx, id string) (*Portfolio, error) {
	row := tx.QueryRow(selectPortfolio+" WHERE id = ?", id)
	return scanPortfolio(row)
}

// UpdateCashTx sets the cash balance inside an open transaction
func (r *PortfolioRepository) UpdateCashTx(tx *sql.Tx, id string, balance float64) error {
	result, err := tx.Exec("UPDATE portfolios SET cash_balance = ? WHERE id = ?", balance, id)
	if err != nil {
		return fmt.Errorf("failed to update cash balance: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}

// Halt marks a portfolio as blocked for writes. Called outside the
// trade transaction: the halt must stick even though the trade rolled
// back.
func (r *PortfolioRepository) Halt(id string, at time.Time) error {
	_, err := r.db.Exec("UPDATE portfolios SET halted_at = ? WHERE id = ?",
		at.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to halt portfolio: %w", err)
	}

	r.log.Error().
		Str("portfolio_id", id).
		Bool("critical", true).
		Msg("Portfolio halted pending manual reconciliation")

	return nil
}

const selectPortfolio = `
	SELECT id, user_id, name, initial_balance, cash_balance, halted_at, created_at
	FROM portfolios`

func scanPortfolio(row *sql.Row) (*Portfolio, error) {
	var p Portfolio
	var haltedAt sql.NullString
	var createdAt string

	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.InitialBalance, &p.CashBalance, &haltedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan portfolio: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		p.CreatedAt = t
	}
	if haltedAt.Valid {
		if t, err := time.Parse(time.RFC3339, haltedAt.String); err == nil {
			p.HaltedAt = &t
		}
	}

	return &p, nil
}

// isUniqueViolation detects a UNIQUE constraint failure without tying
// the repository to a specific sqlite driver's error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
