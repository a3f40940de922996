package domain

import "github.com/shopspring/decimal"

// BeginningOfDay is the opening stock snapshot for a product on a business
// day. At most one row exists per (product, date); resubmission replaces it.
type BeginningOfDay struct {
	ID        int64           `db:"id" json:"id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	BODDate   string          `db:"bod_date" json:"bod_date"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt string          `db:"created_at" json:"created_at"`
}

// Delivery rows are additive; a product may receive several per day.
type Delivery struct {
	ID           int64           `db:"id" json:"id"`
	ProductID    int64           `db:"product_id" json:"product_id"`
	DeliveryDate string          `db:"delivery_date" json:"delivery_date"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	RecordedBy   int64           `db:"recorded_by" json:"recorded_by"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
}

// Sale is a manual (non-recipe) product sale total for a day.
type Sale struct {
	ID           int64           `db:"id" json:"id"`
	ProductID    int64           `db:"product_id" json:"product_id"`
	SaleDate     string          `db:"sale_date" json:"sale_date"`
	QuantitySold decimal.Decimal `db:"quantity_sold" json:"quantity_sold"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
}

// CocktailsSold is the number of units of a recipe sold on a day.
type CocktailsSold struct {
	ID           int64           `db:"id" json:"id"`
	RecipeID     int64           `db:"recipe_id" json:"recipe_id"`
	SoldDate     string          `db:"sold_date" json:"sold_date"`
	QuantitySold decimal.Decimal `db:"quantity_sold" json:"quantity_sold"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
}
