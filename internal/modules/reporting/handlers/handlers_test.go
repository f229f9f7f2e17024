package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/afribourse/tradesim/internal/modules/reporting"
	"github.com/afribourse/tradesim/internal/modules/trading"
	"github.com/afribourse/tradesim/internal/modules/valuation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	statement []trading.Transaction
	report    *reporting.PositionReport
	history   []valuation.Snapshot
	err       error
}

func (m *mockService) Statement(string) ([]trading.Transaction, error) {
	return m.statement, m.err
}

func (m *mockService) Positions(context.Context, string) (*reporting.PositionReport, error) {
	return m.report, m.err
}

func (m *mockService) ValueHistory(string) ([]valuation.Snapshot, error) {
	return m.history, m.err
}

type mockResolver struct {
	portfolio *portfolio.Portfolio
	err       error
}

func (m *mockResolver) GetByUser(string) (*portfolio.Portfolio, error) {
	return m.portfolio, m.err
}

func setupRouter(service *mockService, resolver *mockResolver) *chi.Mux {
	h := NewHandler(service, resolver, zerolog.Nop())
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func doGet(router *chi.Mux, path string, withUser bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withUser {
		req.Header.Set("X-User-ID", "u1")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleTransactions(t *testing.T) {
	service := &mockService{statement: []trading.Transaction{
		{ID: "t2", Ticker: "SNTS", Side: trading.SideSell},
		{ID: "t1", Ticker: "SNTS", Side: trading.SideBuy},
	}}
	router := setupRouter(service, &mockResolver{portfolio: &portfolio.Portfolio{ID: "p1"}})

	rec := doGet(router, "/portfolio/transactions", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var statement []trading.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statement))
	require.Len(t, statement, 2)
	assert.Equal(t, "t2", statement[0].ID)
}

func TestHandleTransactions_EmptyIsArray(t *testing.T) {
	router := setupRouter(&mockService{}, &mockResolver{portfolio: &portfolio.Portfolio{ID: "p1"}})

	rec := doGet(router, "/portfolio/transactions", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestHandlePositions(t *testing.T) {
	service := &mockService{report: &reporting.PositionReport{
		PortfolioID: "p1",
		Positions: []reporting.PositionLine{
			{Ticker: "SNTS", Quantity: 10, AvgPrice: 14000, CurrentPrice: 15000, UnrealizedPnL: 10000},
		},
		Totals: reporting.ReportTotals{InvestedValue: 140000, MarketValue: 150000, GainLoss: 10000},
	}}
	router := setupRouter(service, &mockResolver{portfolio: &portfolio.Portfolio{ID: "p1"}})

	rec := doGet(router, "/portfolio/positions", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var report reporting.PositionReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Positions, 1)
	assert.Equal(t, 10000.0, report.Totals.GainLoss)
}

func TestHandleHistory(t *testing.T) {
	service := &mockService{history: []valuation.Snapshot{
		{PortfolioID: "p1", Date: "2026-08-27", TotalValue: 1000000},
		{PortfolioID: "p1", Date: "2026-08-28", TotalValue: 1010000},
	}}
	router := setupRouter(service, &mockResolver{portfolio: &portfolio.Portfolio{ID: "p1"}})

	rec := doGet(router, "/portfolio/history", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []valuation.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "2026-08-27", history[0].Date)
}

func TestMissingUserHeader(t *testing.T) {
	router := setupRouter(&mockService{}, &mockResolver{})

	for _, path := range []string{"/portfolio/positions", "/portfolio/transactions", "/portfolio/history"} {
		rec := doGet(router, path, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestNoPortfolio(t *testing.T) {
	router := setupRouter(&mockService{}, &mockResolver{err: domain.ErrPortfolioNotFound})

	rec := doGet(router, "/portfolio/positions", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
