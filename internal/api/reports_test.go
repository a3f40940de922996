package api

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"barback/b/domain"
)

type summaryResponse struct {
	Date     string       `json:"date"`
	Products []summaryRow `json:"products"`
}

func TestDailySummaryWorkedExample(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "manager", domain.RoleManager)
	gin := addProduct(t, h, "Gin")
	addLocation(t, h, "Bar")
	seedWorkedExample(t, h, gin)

	_, err := h.db.Exec(`INSERT INTO counts (product_id, location, count_type, user_id, amount, count_date, expected_amount, variance_amount)
		VALUES ($1, 'Bar', $2, 1, 8, $3, 10, -2)`, gin, domain.CountTypeFirst, testDate)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodGet, "/reports/daily-summary?date="+testDate, token, nil)
	requireStatus(t, rec, http.StatusOK)

	var resp summaryResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Products, 1)
	row := resp.Products[0]
	require.True(t, row.BOD.Equal(decimal.NewFromInt(10)))
	require.True(t, row.Delivered.Equal(decimal.NewFromInt(5)))
	require.True(t, row.ManualSales.Equal(decimal.NewFromInt(3)))
	require.True(t, row.CocktailUsage.Equal(decimal.NewFromInt(2)))
	require.True(t, row.ExpectedEOD.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, row.VarianceAmount)
	require.True(t, row.VarianceAmount.Equal(decimal.NewFromInt(-2)))
}

func TestDailySummaryOmitsVarianceWithoutCount(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "manager", domain.RoleManager)
	gin := addProduct(t, h, "Gin")
	seedWorkedExample(t, h, gin)

	rec := doJSON(t, h, http.MethodGet, "/reports/daily-summary?date="+testDate, token, nil)
	requireStatus(t, rec, http.StatusOK)

	var resp summaryResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Products, 1)
	require.Nil(t, resp.Products[0].CountedAmount)
	require.Nil(t, resp.Products[0].VarianceAmount)
}

func TestAlertsSuppressZeroVarianceAndUncounted(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "manager", domain.RoleManager)
	gin := addProduct(t, h, "Gin")
	rum := addProduct(t, h, "Rum")
	addProduct(t, h, "Vodka") // never counted

	_, err := h.db.Exec(`INSERT INTO counts (product_id, location, count_type, user_id, amount, count_date, variance_amount)
		VALUES ($1, 'Bar', $2, 1, 8, $3, -2)`, gin, domain.CountTypeFirst, testDate)
	require.NoError(t, err)
	_, err = h.db.Exec(`INSERT INTO counts (product_id, location, count_type, user_id, amount, count_date, variance_amount)
		VALUES ($1, 'Bar', $2, 1, 5, $3, 0)`, rum, domain.CountTypeFirst, testDate)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodGet, "/dashboard/alerts?date="+testDate, token, nil)
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Date   string     `json:"date"`
		Alerts []alertRow `json:"alerts"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Alerts, 1)
	require.Equal(t, gin, resp.Alerts[0].ProductID)
	require.True(t, resp.Alerts[0].Variance.Equal(decimal.NewFromInt(-2)))
}

func TestVarianceReportPairsFirstAndCorrections(t *testing.T) {
	h := newTestHandler(t)
	aliceID, token := addUser(t, h, "alice", domain.RoleBartender)
	bobID, _ := addUser(t, h, "bob", domain.RoleBartender)
	gin := addProduct(t, h, "Gin")

	_, err := h.db.Exec(`INSERT INTO counts (product_id, location, count_type, user_id, amount, count_date, counted_at, variance_amount)
		VALUES ($1, 'Bar', $2, $3, 8, $4, '2026-08-30 09:00:00', -2)`, gin, domain.CountTypeFirst, aliceID, testDate)
	require.NoError(t, err)
	_, err = h.db.Exec(`INSERT INTO counts (product_id, location, count_type, user_id, amount, count_date, counted_at, variance_amount)
		VALUES ($1, 'Bar', $2, $3, 9.5, $4, '2026-08-30 17:00:00', -0.5)`, gin, domain.CountTypeCorrections, bobID, testDate)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodGet, "/reports/variance?date="+testDate, token, nil)
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Date string        `json:"date"`
		Rows []varianceRow `json:"rows"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	require.NotNil(t, row.First)
	require.NotNil(t, row.Corrections)
	require.Equal(t, aliceID, row.First.UserID)
	require.Equal(t, bobID, row.Corrections.UserID)
	require.NotNil(t, row.CorrectionDelta)
	require.True(t, row.CorrectionDelta.Equal(decimal.RequireFromString("1.5")))
}

func TestVarianceHistoryUnknownProduct(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "manager", domain.RoleManager)

	rec := doJSON(t, h, http.MethodGet, "/reports/variance-history/77", token, nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestVarianceHistoryDefaultsToThirtyDays(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "manager", domain.RoleManager)
	gin := addProduct(t, h, "Gin")

	rec := doJSON(t, h, http.MethodGet, "/reports/variance-history/1", token, nil)
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		ProductID int64 `json:"product_id"`
		Days      int   `json:"days"`
		Series    []struct {
			Date     string           `json:"date"`
			Variance *decimal.Decimal `json:"variance"`
		} `json:"series"`
	}
	decodeBody(t, rec, &resp)
	require.Equal(t, gin, resp.ProductID)
	require.Equal(t, 30, resp.Days)
	require.Len(t, resp.Series, 30)
}

func TestReportsRequireReportRole(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "gary", domain.RoleGeneral)

	rec := doJSON(t, h, http.MethodGet, "/reports/daily-summary", token, nil)
	requireStatus(t, rec, http.StatusForbidden)
}
