package api

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"barback/b/domain"
)

func stockBatch(date string, items ...map[string]any) map[string]any {
	return map[string]any{"date": date, "items": items}
}

func TestSalesResubmissionReplaces(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "alice", domain.RoleBartender)
	gin := addProduct(t, h, "Gin")

	rec := doJSON(t, h, http.MethodPost, "/stock/sales", token,
		stockBatch(testDate, map[string]any{"product_id": gin, "amount": 3}))
	requireStatus(t, rec, http.StatusCreated)

	rec = doJSON(t, h, http.MethodPost, "/stock/sales", token,
		stockBatch(testDate, map[string]any{"product_id": gin, "amount": 7}))
	requireStatus(t, rec, http.StatusCreated)

	var rows []domain.Sale
	require.NoError(t, h.db.Select(&rows, `SELECT id, product_id, sale_date, quantity_sold, created_at FROM sales WHERE product_id = $1 AND sale_date = $2`, gin, testDate))
	require.Len(t, rows, 1)
	require.True(t, rows[0].QuantitySold.Equal(decimal.NewFromInt(7)))
}

func TestBODBatchAllOrNothing(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "manager", domain.RoleManager)
	gin := addProduct(t, h, "Gin")

	rec := doJSON(t, h, http.MethodPost, "/stock/bod", token, stockBatch(testDate,
		map[string]any{"product_id": gin, "amount": 10},
		map[string]any{"product_id": 999, "amount": 5},
	))
	requireStatus(t, rec, http.StatusNotFound)

	// The valid item must not have been applied either.
	var total int
	require.NoError(t, h.db.Get(&total, `SELECT COUNT(*) FROM beginning_of_day`))
	require.Equal(t, 0, total)
}

func TestMalformedNumericRejectsWholeBatch(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "manager", domain.RoleManager)
	addProduct(t, h, "Gin")

	body := `{"date":"2026-08-30","items":[{"product_id":1,"amount":10},{"product_id":1,"amount":"not-a-number"}]}`
	rec := doRaw(t, h, http.MethodPost, "/stock/bod", token, body)
	requireStatus(t, rec, http.StatusBadRequest)

	var total int
	require.NoError(t, h.db.Get(&total, `SELECT COUNT(*) FROM beginning_of_day`))
	require.Equal(t, 0, total)
}

func TestDeliveriesAreAdditive(t *testing.T) {
	h := newTestHandler(t)
	userID, token := addUser(t, h, "alice", domain.RoleBartender)
	gin := addProduct(t, h, "Gin")

	for range [2]int{} {
		rec := doJSON(t, h, http.MethodPost, "/stock/deliveries", token,
			stockBatch(testDate, map[string]any{"product_id": gin, "amount": 5}))
		requireStatus(t, rec, http.StatusCreated)
	}

	var rows []domain.Delivery
	require.NoError(t, h.db.Select(&rows, `SELECT id, product_id, delivery_date, quantity, recorded_by, created_at FROM deliveries WHERE product_id = $1`, gin))
	require.Len(t, rows, 2)
	require.Equal(t, userID, rows[0].RecordedBy)
}

func TestCocktailsUnknownRecipeRejected(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "alice", domain.RoleBartender)

	rec := doJSON(t, h, http.MethodPost, "/stock/cocktails", token, map[string]any{
		"date":  testDate,
		"items": []map[string]any{{"recipe_id": 999, "quantity": 2}},
	})
	requireStatus(t, rec, http.StatusNotFound)
}

func TestBODRequiresManager(t *testing.T) {
	h := newTestHandler(t)
	_, token := addUser(t, h, "carol", domain.RoleWaiter)
	gin := addProduct(t, h, "Gin")

	rec := doJSON(t, h, http.MethodPost, "/stock/bod", token,
		stockBatch(testDate, map[string]any{"product_id": gin, "amount": 10}))
	requireStatus(t, rec, http.StatusForbidden)
}

func TestStockRequiresToken(t *testing.T) {
	h := newTestHandler(t)
	gin := addProduct(t, h, "Gin")

	rec := doJSON(t, h, http.MethodPost, "/stock/sales", "",
		stockBatch(testDate, map[string]any{"product_id": gin, "amount": 3}))
	requireStatus(t, rec, http.StatusUnauthorized)
}
