package domain

import "github.com/shopspring/decimal"

type Recipe struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// RecipeIngredient maps a product into a recipe with the quantity consumed
// per unit of the cocktail sold.
type RecipeIngredient struct {
	ID        int64           `db:"id" json:"id"`
	RecipeID  int64           `db:"recipe_id" json:"recipe_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
}
