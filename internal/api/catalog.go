package api

import (
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"barback/b/domain"
)

// Catalog handlers: reference data the reconciliation engine reads.

type productRequest struct {
	Name      string           `json:"name" validate:"required"`
	Unit      string           `json:"unit" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opCatalogWrite) {
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidation(w, err)
		return
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		respondError(w, http.StatusBadRequest, "unit_price cannot be negative")
		return
	}

	var id int64
	err := h.db.QueryRowx(`INSERT INTO products (name, unit, unit_price) VALUES ($1, $2, $3) RETURNING id`,
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Unit), req.UnitPrice).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			respondError(w, http.StatusConflict, "product name already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create product")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var products []domain.Product
	if err := h.db.Select(&products, `SELECT id, name, unit, unit_price, created_at FROM products ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

type locationRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) createLocation(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opCatalogWrite) {
		return
	}
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidation(w, err)
		return
	}

	var id int64
	err := h.db.QueryRowx(`INSERT INTO locations (name) VALUES ($1) RETURNING id`, strings.TrimSpace(req.Name)).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			respondError(w, http.StatusConflict, "location already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create location")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	var locations []domain.Location
	if err := h.db.Select(&locations, `SELECT id, name FROM locations ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list locations")
		return
	}
	respondJSON(w, http.StatusOK, locations)
}

// Recipes

type recipeIngredientRequest struct {
	ProductID int64           `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type recipeRequest struct {
	Name        string                    `json:"name" validate:"required"`
	Ingredients []recipeIngredientRequest `json:"ingredients" validate:"dive"`
}

func (h *Handler) createRecipe(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opCatalogWrite) {
		return
	}
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidation(w, err)
		return
	}
	for _, ing := range req.Ingredients {
		if !ing.Quantity.IsPositive() {
			respondError(w, http.StatusBadRequest, "ingredient quantity must be positive")
			return
		}
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	for _, ing := range req.Ingredients {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, ing.ProductID); err != nil || !exists {
			respondError(w, http.StatusNotFound, "unknown product in ingredients")
			return
		}
	}

	var recipeID int64
	err = tx.QueryRowx(`INSERT INTO recipes (name) VALUES ($1) RETURNING id`, strings.TrimSpace(req.Name)).Scan(&recipeID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			respondError(w, http.StatusConflict, "recipe name already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create recipe")
		return
	}

	for _, ing := range req.Ingredients {
		if _, err := tx.Exec(`INSERT INTO recipe_ingredients (recipe_id, product_id, quantity) VALUES ($1, $2, $3)`,
			recipeID, ing.ProductID, ing.Quantity); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to add recipe ingredients")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save recipe")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": recipeID, "name": req.Name})
}

type recipeEntry struct {
	domain.Recipe
	Ingredients []domain.RecipeIngredient `json:"ingredients"`
}

func (h *Handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	var recipes []domain.Recipe
	if err := h.db.Select(&recipes, `SELECT id, name, created_at FROM recipes ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list recipes")
		return
	}
	if len(recipes) == 0 {
		respondJSON(w, http.StatusOK, []recipeEntry{})
		return
	}

	ids := make([]int64, len(recipes))
	for i, recipe := range recipes {
		ids[i] = recipe.ID
	}
	query, args, err := sqlx.In(`SELECT id, recipe_id, product_id, quantity FROM recipe_ingredients WHERE recipe_id IN (?)`, ids)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to prepare ingredients query")
		return
	}
	var rows []domain.RecipeIngredient
	if err := h.db.Select(&rows, h.db.Rebind(query), args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load ingredients")
		return
	}
	byRecipe := make(map[int64][]domain.RecipeIngredient)
	for _, row := range rows {
		byRecipe[row.RecipeID] = append(byRecipe[row.RecipeID], row)
	}

	entries := make([]recipeEntry, len(recipes))
	for i, recipe := range recipes {
		ingredients := byRecipe[recipe.ID]
		if ingredients == nil {
			ingredients = []domain.RecipeIngredient{}
		}
		entries[i] = recipeEntry{Recipe: recipe, Ingredients: ingredients}
	}
	respondJSON(w, http.StatusOK, entries)
}
