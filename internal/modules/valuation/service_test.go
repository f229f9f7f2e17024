package valuation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/events"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	testingpkg "github.com/afribourse/tradesim/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db      *sql.DB
	service *Service
	quotes  *testingpkg.MockQuoteProvider

	portfolioRepo *portfolio.PortfolioRepository
	positionRepo  *portfolio.PositionRepository
	snapshotRepo  *SnapshotRepository
}

func setupService(t *testing.T) *testEnv {
	t.Helper()

	db := testingpkg.NewTestDB(t)
	log := zerolog.Nop()

	env := &testEnv{
		db:            db,
		quotes:        testingpkg.NewMockQuoteProvider(),
		portfolioRepo: portfolio.NewPortfolioRepository(db, log),
		positionRepo:  portfolio.NewPositionRepository(db, log),
		snapshotRepo:  NewSnapshotRepository(db, log),
	}
	env.service = NewService(
		env.portfolioRepo,
		env.positionRepo,
		env.snapshotRepo,
		env.quotes,
		events.NewManager(log),
		time.UTC,
		log,
	)
	return env
}

func TestComputeValue_CashOnly(t *testing.T) {
	env := setupService(t)
	p := testingpkg.CreatePortfolio(t, env.portfolioRepo, 1000000)

	v, err := env.service.ComputeValue(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, 1000000.0, v.TotalValue)
	assert.Equal(t, 1000000.0, v.CashBalance)
	assert.Equal(t, 0.0, v.PositionsValue)
	assert.False(t, v.Partial)
	assert.Empty(t, v.Positions)
}

func TestComputeValue_MarksPositionsToMarket(t *testing.T) {
	env := setupService(t)
	p := testingpkg.CreatePortfolio(t, env.portfolioRepo, 100000)
	testingpkg.AddPosition(t, env.db, env.positionRepo, p.ID, "SNTS", 10, 14000)
	testingpkg.AddPosition(t, env.db, env.positionRepo, p.ID, "BOAB", 20, 6000)
	env.quotes.SetPrice("SNTS", 15000)
	env.quotes.SetPrice("BOAB", 5500)

	v, err := env.service.ComputeValue(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, 100000.0+150000.0+110000.0, v.TotalValue)
	assert.Equal(t, 260000.0, v.PositionsValue)
	assert.False(t, v.Partial)
	require.Len(t, v.Positions, 2)

	// ListByPortfolio orders by ticker
	assert.Equal(t, "BOAB", v.Positions[0].Ticker)
	assert.Equal(t, 5500.0, v.Positions[0].CurrentPrice)
	assert.Equal(t, 110000.0, v.Positions[0].MarketValue)
}

func TestComputeValue_MissingQuoteFallsBackToCost(t *testing.T) {
	env := setupService(t)
	p := testingpkg.CreatePortfolio(t, env.portfolioRepo, 0)
	testingpkg.AddPosition(t, env.db, env.positionRepo, p.ID, "SNTS", 10, 14000)
	testingpkg.AddPosition(t, env.db, env.positionRepo, p.ID, "DLST", 5, 2000)
	env.quotes.SetPrice("SNTS", 15000)
	// no quote for DLST

	v, err := env.service.ComputeValue(context.Background(), p.ID)
	require.NoError(t, err)

	assert.True(t, v.Partial)
	assert.Equal(t, 150000.0+10000.0, v.PositionsValue)

	for _, pv := range v.Positions {
		if pv.Ticker == "DLST" {
			assert.True(t, pv.QuoteMissing)
			assert.Equal(t, 2000.0, pv.CurrentPrice)
		} else {
			assert.False(t, pv.QuoteMissing)
		}
	}
}

func TestComputeValue_ProviderDownValuesAtCost(t *testing.T) {
	env := setupService(t)
	p := testingpkg.CreatePortfolio(t, env.portfolioRepo, 1000)
	testingpkg.AddPosition(t, env.db, env.positionRepo, p.ID, "SNTS", 10, 14000)
	env.quotes.SetError(domain.ErrQuoteUnavailable)

	v, err := env.service.ComputeValue(context.Background(), p.ID)
	require.NoError(t, err)

	assert.True(t, v.Partial)
	assert.Equal(t, 140000.0, v.PositionsValue)
}

func TestComputeValue_PortfolioNotFound(t *testing.T) {
	env := setupService(t)

	_, err := env.service.ComputeValue(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestSnapshot_SameDayRecaptureSupersedes(t *testing.T) {
	env := setupService(t)
	p := testingpkg.CreatePortfolio(t, env.portfolioRepo, 100000)
	testingpkg.AddPosition(t, env.db, env.positionRepo, p.ID, "SNTS", 10, 14000)
	env.quotes.SetPrice("SNTS", 14000)

	first, err := env.service.Snapshot(context.Background(), p.ID, "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, 240000.0, first.TotalValue)

	env.quotes.SetPrice("SNTS", 15000)
	second, err := env.service.Snapshot(context.Background(), p.ID, "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, 250000.0, second.TotalValue)

	// One row per (portfolio, date), carrying the latest capture
	snapshots, err := env.snapshotRepo.ListByPortfolio(p.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 250000.0, snapshots[0].TotalValue)
}

func TestSnapshot_DefaultsToToday(t *testing.T) {
	env := setupService(t)
	p := testingpkg.CreatePortfolio(t, env.portfolioRepo, 500)

	s, err := env.service.Snapshot(context.Background(), p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), s.Date)
}

func TestSnapshotAll_CapturesEveryPortfolio(t *testing.T) {
	env := setupService(t)
	a := testingpkg.CreatePortfolio(t, env.portfolioRepo, 1000)
	b := testingpkg.CreatePortfolio(t, env.portfolioRepo, 2000)

	captured, failed, err := env.service.SnapshotAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, captured)
	assert.Equal(t, 0, failed)

	for _, p := range []*portfolio.Portfolio{a, b} {
		snapshots, err := env.snapshotRepo.ListByPortfolio(p.ID)
		require.NoError(t, err)
		assert.Len(t, snapshots, 1)
	}
}

func TestSnapshotJob_Run(t *testing.T) {
	env := setupService(t)
	p := testingpkg.CreatePortfolio(t, env.portfolioRepo, 1000)

	job := NewSnapshotJob(env.service, zerolog.Nop())
	assert.Equal(t, "daily_snapshot", job.Name())
	require.NoError(t, job.Run())

	snapshots, err := env.snapshotRepo.ListByPortfolio(p.ID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}

func TestSnapshotRepository_ListAscendingByDate(t *testing.T) {
	env := setupService(t)
	p := testingpkg.CreatePortfolio(t, env.portfolioRepo, 1000)

	for _, date := range []string{"2026-08-27", "2026-08-25", "2026-08-26"} {
		_, err := env.service.Snapshot(context.Background(), p.ID, date)
		require.NoError(t, err)
	}

	history, err := env.snapshotRepo.ListByPortfolio(p.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2026-08-25", history[0].Date)
	assert.Equal(t, "2026-08-26", history[1].Date)
	assert.Equal(t, "2026-08-27", history[2].Date)
}
