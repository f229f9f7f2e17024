package portfolio_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	testingpkg "github.com/afribourse/tradesim/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*portfolio.Service, *portfolio.PortfolioRepository, *portfolio.PositionRepository, *sql.DB) {
	t.Helper()

	db := testingpkg.NewTestDB(t)
	log := zerolog.Nop()
	portfolioRepo := portfolio.NewPortfolioRepository(db, log)
	positionRepo := portfolio.NewPositionRepository(db, log)
	service := portfolio.NewService(portfolioRepo, positionRepo, 1000000, log)
	return service, portfolioRepo, positionRepo, db
}

func TestCreate_DefaultsAndBalance(t *testing.T) {
	service, _, _, _ := setupService(t)

	p, err := service.Create("u1", "")
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Mon Portefeuille Virtuel", p.Name)
	assert.Equal(t, 1000000.0, p.InitialBalance)
	assert.Equal(t, 1000000.0, p.CashBalance)
	assert.False(t, p.Halted())
}

func TestCreate_CustomName(t *testing.T) {
	service, _, _, _ := setupService(t)

	p, err := service.Create("u1", "  Épargne  ")
	require.NoError(t, err)
	assert.Equal(t, "Épargne", p.Name)
}

func TestCreate_OnePortfolioPerUser(t *testing.T) {
	service, _, _, _ := setupService(t)

	_, err := service.Create("u1", "")
	require.NoError(t, err)

	_, err = service.Create("u1", "another")
	assert.ErrorIs(t, err, domain.ErrPortfolioExists)
}

func TestGetByUser(t *testing.T) {
	service, _, _, _ := setupService(t)

	created, err := service.Create("u1", "")
	require.NoError(t, err)

	loaded, err := service.GetByUser("u1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)

	_, err = service.GetByUser("stranger")
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestGetWithPositions(t *testing.T) {
	service, _, positionRepo, db := setupService(t)

	p, err := service.Create("u1", "")
	require.NoError(t, err)

	testingpkg.AddPosition(t, db, positionRepo, p.ID, "SNTS", 10, 14000)

	loaded, positions, err := service.GetWithPositions("u1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, loaded.ID)
	require.Len(t, positions, 1)
	assert.Equal(t, "SNTS", positions[0].Ticker)
	assert.Equal(t, 140000.0, positions[0].CostBasis())
}

func TestHalt_PersistsAndBlocks(t *testing.T) {
	_, portfolioRepo, _, _ := setupService(t)

	p := testingpkg.CreatePortfolio(t, portfolioRepo, 1000)

	haltedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, portfolioRepo.Halt(p.ID, haltedAt))

	loaded, err := portfolioRepo.GetByID(p.ID)
	require.NoError(t, err)
	require.True(t, loaded.Halted())
	assert.True(t, loaded.HaltedAt.Equal(haltedAt))
}

func TestPositionRepository_UpsertAndDelete(t *testing.T) {
	_, portfolioRepo, positionRepo, db := setupService(t)

	p := testingpkg.CreatePortfolio(t, portfolioRepo, 1000)

	// Insert, then update through the same upsert path; ticker is
	// normalized, so both writes hit the same row
	testingpkg.AddPosition(t, db, positionRepo, p.ID, "snts", 5, 100)
	testingpkg.AddPosition(t, db, positionRepo, p.ID, "SNTS", 8, 120)

	pos, err := positionRepo.GetByTicker(p.ID, "SNTS")
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos.Quantity)
	assert.Equal(t, 120.0, pos.AvgPrice)

	positions, err := positionRepo.ListByPortfolio(p.ID)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, positionRepo.DeleteTx(tx, p.ID, "SNTS"))
	require.NoError(t, tx.Commit())

	_, err = positionRepo.GetByTicker(p.ID, "SNTS")
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)
}

func TestPositionRepository_DeleteMissing(t *testing.T) {
	_, _, positionRepo, db := setupService(t)

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = positionRepo.DeleteTx(tx, "nope", "SNTS")
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)
}
