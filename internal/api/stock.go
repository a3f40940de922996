package api

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Stock ledger submissions. Batches are all-or-nothing: one malformed or
// unknown item rolls back the whole request so a day's snapshot can never
// be applied partially.

type stockItem struct {
	ProductID int64           `json:"product_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

type stockBatchRequest struct {
	Date  string      `json:"date" validate:"required,datetime=2006-01-02"`
	Items []stockItem `json:"items" validate:"required,min=1,dive"`
}

// checkProducts verifies every product id in the batch exists before any
// row is written. Unknown ids are a hard rejection here, unlike in the
// aggregate reports.
func checkProducts(tx *sqlx.Tx, items []stockItem) (int64, bool, error) {
	for _, item := range items {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, item.ProductID); err != nil {
			return 0, false, err
		}
		if !exists {
			return item.ProductID, false, nil
		}
	}
	return 0, true, nil
}

func (h *Handler) decodeStockBatch(w http.ResponseWriter, r *http.Request) (*stockBatchRequest, bool) {
	var req stockBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed item in batch: "+err.Error())
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidation(w, err)
		return nil, false
	}
	for _, item := range req.Items {
		if item.Amount.IsNegative() {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("negative amount for product %d", item.ProductID))
			return nil, false
		}
	}
	return &req, true
}

// submitBOD replaces the opening stock snapshot for the date. Uniqueness
// per (product, date) is enforced by delete-then-insert, not a constraint.
func (h *Handler) submitBOD(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opBODSubmit) {
		return
	}
	req, ok := h.decodeStockBatch(w, r)
	if !ok {
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	if badID, ok, err := checkProducts(tx, req.Items); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify products")
		return
	} else if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown product %d", badID))
		return
	}

	for _, item := range req.Items {
		if _, err := tx.Exec(`DELETE FROM beginning_of_day WHERE product_id = $1 AND bod_date = $2`, item.ProductID, req.Date); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to replace opening stock")
			return
		}
		if _, err := tx.Exec(`INSERT INTO beginning_of_day (product_id, bod_date, amount) VALUES ($1, $2, $3)`,
			item.ProductID, req.Date, item.Amount); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to record opening stock")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save opening stock")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"status": "opening stock recorded", "items": len(req.Items)})
}

// submitDeliveries appends delivery rows; multiple rows per product per
// day are additive.
func (h *Handler) submitDeliveries(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opStockSubmit) {
		return
	}
	req, ok := h.decodeStockBatch(w, r)
	if !ok {
		return
	}
	userID := userIDFromContext(r)

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	if badID, ok, err := checkProducts(tx, req.Items); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify products")
		return
	} else if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown product %d", badID))
		return
	}

	for _, item := range req.Items {
		if _, err := tx.Exec(`INSERT INTO deliveries (product_id, delivery_date, quantity, recorded_by) VALUES ($1, $2, $3, $4)`,
			item.ProductID, req.Date, item.Amount, userID); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to record delivery")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save deliveries")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"status": "deliveries recorded", "items": len(req.Items)})
}

// submitSales replaces the day's manual sales wholesale per product.
func (h *Handler) submitSales(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opStockSubmit) {
		return
	}
	req, ok := h.decodeStockBatch(w, r)
	if !ok {
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	if badID, ok, err := checkProducts(tx, req.Items); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify products")
		return
	} else if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown product %d", badID))
		return
	}

	for _, item := range req.Items {
		if _, err := tx.Exec(`DELETE FROM sales WHERE product_id = $1 AND sale_date = $2`, item.ProductID, req.Date); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to replace sales")
			return
		}
		if _, err := tx.Exec(`INSERT INTO sales (product_id, sale_date, quantity_sold) VALUES ($1, $2, $3)`,
			item.ProductID, req.Date, item.Amount); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to record sales")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save sales")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"status": "sales recorded", "items": len(req.Items)})
}

type cocktailItem struct {
	RecipeID int64           `json:"recipe_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

type cocktailBatchRequest struct {
	Date  string         `json:"date" validate:"required,datetime=2006-01-02"`
	Items []cocktailItem `json:"items" validate:"required,min=1,dive"`
}

// submitCocktails replaces the day's cocktail sales wholesale per recipe.
func (h *Handler) submitCocktails(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opStockSubmit) {
		return
	}
	var req cocktailBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed item in batch: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidation(w, err)
		return
	}
	for _, item := range req.Items {
		if item.Quantity.IsNegative() {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("negative quantity for recipe %d", item.RecipeID))
			return
		}
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	for _, item := range req.Items {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM recipes WHERE id = $1)`, item.RecipeID); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to verify recipes")
			return
		}
		if !exists {
			respondError(w, http.StatusNotFound, fmt.Sprintf("unknown recipe %d", item.RecipeID))
			return
		}
	}

	for _, item := range req.Items {
		if _, err := tx.Exec(`DELETE FROM cocktails_sold WHERE recipe_id = $1 AND sold_date = $2`, item.RecipeID, req.Date); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to replace cocktail sales")
			return
		}
		if _, err := tx.Exec(`INSERT INTO cocktails_sold (recipe_id, sold_date, quantity_sold) VALUES ($1, $2, $3)`,
			item.RecipeID, req.Date, item.Quantity); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to record cocktail sales")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save cocktail sales")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"status": "cocktail sales recorded", "items": len(req.Items)})
}
