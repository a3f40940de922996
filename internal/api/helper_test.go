package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"barback/b/internal/migrations"
)

const testDate = "2026-08-30"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	migrations.Run(db, log)
	return New(db, "test_secret", log)
}

// addUser inserts a user row directly and returns its id and a bearer token.
func addUser(t *testing.T, h *Handler, name, role string) (int64, string) {
	t.Helper()
	var id int64
	err := h.db.QueryRowx(`INSERT INTO users (username, email, password, role) VALUES ($1, $2, 'hash', $3) RETURNING id`,
		name, name+"@bar.test", role).Scan(&id)
	require.NoError(t, err)
	token, err := h.generateToken(id, role)
	require.NoError(t, err)
	return id, token
}

func addProduct(t *testing.T, h *Handler, name string) int64 {
	t.Helper()
	var id int64
	err := h.db.QueryRowx(`INSERT INTO products (name, unit) VALUES ($1, 'ml') RETURNING id`, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func addLocation(t *testing.T, h *Handler, name string) {
	t.Helper()
	_, err := h.db.Exec(`INSERT INTO locations (name) VALUES ($1)`, name)
	require.NoError(t, err)
}

func doJSON(t *testing.T, h *Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		reader = &buf
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func doRaw(t *testing.T, h *Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}

// seedWorkedExample loads the ledger used across tests:
// BOD 10, delivery 5, manual sale 3, cocktail usage 2 -> expected EOD 10.
func seedWorkedExample(t *testing.T, h *Handler, productID int64) {
	t.Helper()
	_, err := h.db.Exec(`INSERT INTO beginning_of_day (product_id, bod_date, amount) VALUES ($1, $2, 10)`, productID, testDate)
	require.NoError(t, err)
	_, err = h.db.Exec(`INSERT INTO deliveries (product_id, delivery_date, quantity, recorded_by) VALUES ($1, $2, 5, 1)`, productID, testDate)
	require.NoError(t, err)
	_, err = h.db.Exec(`INSERT INTO sales (product_id, sale_date, quantity_sold) VALUES ($1, $2, 3)`, productID, testDate)
	require.NoError(t, err)

	var recipeID int64
	err = h.db.QueryRowx(`INSERT INTO recipes (name) VALUES ($1) RETURNING id`, "Spritz-"+t.Name()).Scan(&recipeID)
	require.NoError(t, err)
	_, err = h.db.Exec(`INSERT INTO recipe_ingredients (recipe_id, product_id, quantity) VALUES ($1, $2, 1)`, recipeID, productID)
	require.NoError(t, err)
	_, err = h.db.Exec(`INSERT INTO cocktails_sold (recipe_id, sold_date, quantity_sold) VALUES ($1, $2, 2)`, recipeID, testDate)
	require.NoError(t, err)
}

func submitCountReq(productID int64, location, countType string, amount float64) map[string]any {
	return map[string]any{
		"product_id": productID,
		"location":   location,
		"count_type": countType,
		"date":       testDate,
		"amount":     amount,
	}
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "unexpected status, body: %s", rec.Body.String())
}
