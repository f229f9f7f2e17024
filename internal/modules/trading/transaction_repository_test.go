package trading

import (
	"testing"
	"time"

	"github.com/afribourse/tradesim/internal/modules/portfolio"
	testingpkg "github.com/afribourse/tradesim/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByPortfolio_SameSecondEntriesKeepExecutionOrder(t *testing.T) {
	db := testingpkg.NewTestDB(t)
	log := zerolog.Nop()
	portfolioRepo := portfolio.NewPortfolioRepository(db, log)
	repo := NewTransactionRepository(db, log)

	p := testingpkg.CreatePortfolio(t, portfolioRepo, 1000000)

	// All three entries land within the same wall-clock second. The IDs
	// are chosen so the id tiebreak alone would invert the order.
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	entries := []Transaction{
		{ID: "zzz-first", PortfolioID: p.ID, Ticker: "SNTS", Side: SideBuy, Quantity: 1, Price: 100, ExecutedAt: base},
		{ID: "aaa-second", PortfolioID: p.ID, Ticker: "SNTS", Side: SideBuy, Quantity: 1, Price: 100, ExecutedAt: base.Add(50 * time.Millisecond)},
		{ID: "mmm-third", PortfolioID: p.ID, Ticker: "SNTS", Side: SideSell, Quantity: 1, Price: 100, ExecutedAt: base.Add(900 * time.Millisecond)},
	}
	for i := range entries {
		tx, err := db.Begin()
		require.NoError(t, err)
		require.NoError(t, repo.CreateTx(tx, &entries[i]))
		require.NoError(t, tx.Commit())
	}

	got, err := repo.ListByPortfolio(p.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "mmm-third", got[0].ID)
	assert.Equal(t, "aaa-second", got[1].ID)
	assert.Equal(t, "zzz-first", got[2].ID)

	// Sub-second precision survives the round trip
	assert.True(t, got[1].ExecutedAt.Equal(base.Add(50*time.Millisecond)))
}
