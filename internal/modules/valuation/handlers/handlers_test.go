package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afribourse/tradesim/internal/domain"
	"github.com/afribourse/tradesim/internal/modules/portfolio"
	"github.com/afribourse/tradesim/internal/modules/valuation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	valuation *valuation.Valuation
	snapshot  *valuation.Snapshot
	err       error
}

func (m *mockService) ComputeValue(context.Context, string) (*valuation.Valuation, error) {
	return m.valuation, m.err
}

func (m *mockService) Snapshot(context.Context, string, string) (*valuation.Snapshot, error) {
	return m.snapshot, m.err
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

func TestHandleValue(t *testing.T) {
	service := &mockService{valuation: &valuation.Valuation{
		PortfolioID:    "p1",
		TotalValue:     1040000,
		CashBalance:    890000,
		PositionsValue: 150000,
	}}
	router := setupRouter(service, &mockResolver{portfolio: &portfolio.Portfolio{ID: "p1"}})

	req := httptest.NewRequest(http.MethodGet, "/portfolio/value", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var v valuation.Valuation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, 1040000.0, v.TotalValue)
}

func TestHandleValue_MissingUserHeader(t *testing.T) {
	router := setupRouter(&mockService{}, &mockResolver{})

	req := httptest.NewRequest(http.MethodGet, "/portfolio/value", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleValue_NoPortfolio(t *testing.T) {
	router := setupRouter(&mockService{}, &mockResolver{err: domain.ErrPortfolioNotFound})

	req := httptest.NewRequest(http.MethodGet, "/portfolio/value", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSnapshot(t *testing.T) {
	service := &mockService{snapshot: &valuation.Snapshot{
		PortfolioID: "p1",
		Date:        "2026-08-28",
		TotalValue:  1040000,
	}}
	router := setupRouter(service, &mockResolver{portfolio: &portfolio.Portfolio{ID: "p1"}})

	req := httptest.NewRequest(http.MethodPost, "/portfolio/snapshot", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var s valuation.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, "2026-08-28", s.Date)
}
