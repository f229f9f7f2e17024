package valuation

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/rs/zerolog"
)

// SnapshotRepository handles snapshot database operations
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "snapshot").Logger(),
	}
}

// Upsert writes a snapshot, replacing any earlier capture for the same
// portfolio and date
func (r *SnapshotRepository) Upsert(s *Snapshot) error {
	query := `
		INSERT INTO snapshots (portfolio_id, date, total_value, cash_balance, positions_value, partial, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (portfolio_id, date) DO UPDATE SET
			total_value = excluded.total_value,
			cash_balance = excluded.cash_balance,
			positions_value = excluded.positions_value,
			partial = excluded.partial,
			captured_at = excluded.captured_at
	`

	_, err := r.db.Exec(query,
		s.PortfolioID,
		s.Date,
		s.TotalValue,
		s.CashBalance,
		s.PositionsValue,
		boolToInt(s.Partial),
		s.CapturedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

// ListByPortfolio returns all snapshots for a portfolio ascending by
// date, for charting
func (r *SnapshotRepository) ListByPortfolio(portfolioID string) ([]Snapshot, error) {
	query := `
		SELECT portfolio_id, date, total_value, cash_balance, positions_value, partial, captured_at
		FROM snapshots
		WHERE portfolio_id = ?
		ORDER BY date ASC
	`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		var partial int
		var capturedAt string

		if err := rows.Scan(&s.PortfolioID, &s.Date, &s.TotalValue, &s.CashBalance, &s.PositionsValue, &partial, &capturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		s.Partial = partial != 0
		if t, err := time.Parse(time.RFC3339, capturedAt); err == nil {
			s.CapturedAt = t
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

// GetByDate returns the snapshot for one portfolio and date
func (r *SnapshotRepository) GetByDate(portfolioID, date string) (*Snapshot, error) {
	query := `
		SELECT portfolio_id, date, total_value, cash_balance, positions_value, partial, captured_at
		FROM snapshots
		WHERE portfolio_id = ? AND date = ?
	`

	var s Snapshot
	var partial int
	var capturedAt string

	err := r.db.QueryRow(query, portfolioID, date).
		Scan(&s.PortfolioID, &s.Date, &s.TotalValue, &s.CashBalance, &s.PositionsValue, &partial, &capturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	s.Partial = partial != 0
	if t, err := time.Parse(time.RFC3339, capturedAt); err == nil {
		s.CapturedAt = t
	}

	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
