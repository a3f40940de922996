package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"barback/b/domain"
	"barback/b/internal/inventory"
)

type countRequest struct {
	ProductID int64           `json:"product_id" validate:"required"`
	Location  string          `json:"location" validate:"required"`
	CountType string          `json:"count_type" validate:"required"`
	Date      string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount    decimal.Decimal `json:"amount"`
}

// submitCount appends an immutable count row. A Corrections Count by the
// author of the day's First Count for the same product/location is
// rejected: corrections require an independent second counter.
func (h *Handler) submitCount(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opCountSubmit) {
		return
	}
	var req countRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidation(w, err)
		return
	}
	if req.CountType != domain.CountTypeFirst && req.CountType != domain.CountTypeCorrections {
		respondError(w, http.StatusBadRequest, "count_type must be First Count or Corrections Count")
		return
	}
	if req.Amount.IsNegative() {
		respondError(w, http.StatusBadRequest, "amount cannot be negative")
		return
	}

	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, req.ProductID); err != nil || !exists {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err := h.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM locations WHERE name = $1)`, req.Location); err != nil || !exists {
		respondError(w, http.StatusNotFound, "location not found")
		return
	}

	userID := userIDFromContext(r)

	if req.CountType == domain.CountTypeCorrections {
		var firstAuthor int64
		err := h.db.Get(&firstAuthor, `SELECT user_id FROM counts
			WHERE product_id = $1 AND location = $2 AND count_date = $3 AND count_type = $4
			ORDER BY counted_at ASC, id ASC LIMIT 1`,
			req.ProductID, req.Location, req.Date, domain.CountTypeFirst)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusInternalServerError, "unable to check first count")
			return
		}
		if err == nil && firstAuthor == userID {
			respondError(w, http.StatusForbidden, "the first counter cannot correct their own count")
			return
		}
	}

	proj, err := h.engine.ProjectDay(req.ProductID, req.Date, inventory.PrecisionFull)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute expected stock")
		return
	}
	variance := req.Amount.Sub(proj.ExpectedEOD)

	var countID int64
	err = h.db.QueryRowx(`INSERT INTO counts (product_id, location, count_type, user_id, amount, count_date, expected_amount, variance_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		req.ProductID, req.Location, req.CountType, userID, req.Amount, req.Date, proj.ExpectedEOD, variance).Scan(&countID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record count")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":              countID,
		"expected_amount": proj.ExpectedEOD.Round(2),
		"variance_amount": variance.Round(2),
	})
}

type explanationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// explainVariance upserts the explanation for a count; the latest reason
// wins, one row per count.
func (h *Handler) explainVariance(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opCountSubmit) {
		return
	}
	countID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid count id")
		return
	}
	var req explanationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		respondError(w, http.StatusBadRequest, "reason is required")
		return
	}

	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM counts WHERE id = $1)`, countID); err != nil || !exists {
		respondError(w, http.StatusNotFound, "count not found")
		return
	}

	userID := userIDFromContext(r)
	_, err = h.db.Exec(`INSERT INTO variance_explanations (count_id, reason, user_id) VALUES ($1, $2, $3)
		ON CONFLICT(count_id) DO UPDATE SET reason = excluded.reason, user_id = excluded.user_id, created_at = CURRENT_TIMESTAMP`,
		countID, strings.TrimSpace(req.Reason), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save explanation")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "explanation saved"})
}
