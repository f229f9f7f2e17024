package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PortfolioRepositoryInterface defines the portfolio persistence
// contract used by the service
type PortfolioRepositoryInterface interface {
	Create(p *Portfolio) error
	GetByID(id string) (*Portfolio, error)
	GetByUser(userID string) (*Portfolio, error)
	ListIDs() ([]string, error)
}

// Compile-time check that PortfolioRepository implements the interface
var _ PortfolioRepositoryInterface = (*PortfolioRepository)(nil)

// PositionRepositoryInterface defines the read-only position access
// used by the service
type PositionRepositoryInterface interface {
	ListByPortfolio(portfolioID string) ([]Position, error)
}

var _ PositionRepositoryInterface = (*PositionRepository)(nil)

// Service handles portfolio lifecycle: creation on first opt-in and
// lookup by user. Balances and positions are mutated exclusively by the
// trading engine, never here.
type Service struct {
	portfolioRepo  PortfolioRepositoryInterface
	positionRepo   PositionRepositoryInterface
	initialBalance float64
	log            zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(
	portfolioRepo PortfolioRepositoryInterface,
	positionRepo PositionRepositoryInterface,
	initialBalance float64,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolioRepo:  portfolioRepo,
		positionRepo:   positionRepo,
		initialBalance: initialBalance,
		log:            log.With().Str("service", "portfolio").Logger(),
	}
}

// Create opens a portfolio for a user with the configured starting
// cash. Returns domain.ErrPortfolioExists if the user already has one.
func (s *Service) Create(userID, name string) (*Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Mon Portefeuille Virtuel"
	}

	p := &Portfolio{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           name,
		InitialBalance: s.initialBalance,
		CashBalance:    s.initialBalance,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.portfolioRepo.Create(p); err != nil {
		return nil, err
	}

	return p, nil
}

// GetByUser returns the user's portfolio, or domain.ErrPortfolioNotFound
func (s *Service) GetByUser(userID string) (*Portfolio, error) {
	return s.portfolioRepo.GetByUser(userID)
}

// GetWithPositions returns the user's portfolio together with its
// current holdings
func (s *Service) GetWithPositions(userID string) (*Portfolio, []Position, error) {
	p, err := s.portfolioRepo.GetByUser(userID)
	if err != nil {
		return nil, nil, err
	}

	positions, err := s.positionRepo.ListByPortfolio(p.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load positions: %w", err)
	}

	return p, positions, nil
}
