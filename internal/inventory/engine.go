package inventory

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"barback/b/domain"
)

// Precision selects which ledger rows the expected-EOD formula subtracts.
// The mobile dashboard historically used a lighter computation than the
// daily summary; both now run through the same formula with this flag so
// they cannot drift apart.
type Precision int

const (
	// PrecisionFull subtracts manual sales and cocktail ingredient usage.
	PrecisionFull Precision = iota
	// PrecisionStockOnly stops at BOD + deliveries.
	PrecisionStockOnly
)

// ParsePrecision maps the query-string value to a precision level,
// defaulting to full.
func ParsePrecision(s string) Precision {
	if s == "stock" {
		return PrecisionStockOnly
	}
	return PrecisionFull
}

// Engine derives expected end-of-day stock and variances from the ledger
// tables. It holds no state between calls; every figure is recomputed from
// the store.
type Engine struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Engine {
	return &Engine{db: db, log: log}
}

// UsageForDate returns the total ingredient quantity consumed per product
// via cocktail sales on the given date. Cocktail rows whose recipe no
// longer exists are skipped, not treated as errors.
func (e *Engine) UsageForDate(date string) (map[int64]decimal.Decimal, error) {
	usage := make(map[int64]decimal.Decimal)

	var sold []domain.CocktailsSold
	if err := e.db.Select(&sold, `SELECT id, recipe_id, sold_date, quantity_sold, created_at FROM cocktails_sold WHERE sold_date = $1`, date); err != nil {
		return nil, err
	}
	if len(sold) == 0 {
		return usage, nil
	}

	recipeIDs := make([]int64, 0, len(sold))
	for _, row := range sold {
		recipeIDs = append(recipeIDs, row.RecipeID)
	}

	query, args, err := sqlx.In(`SELECT id, recipe_id, product_id, quantity FROM recipe_ingredients WHERE recipe_id IN (?)`, recipeIDs)
	if err != nil {
		return nil, err
	}
	var ingredients []domain.RecipeIngredient
	if err := e.db.Select(&ingredients, e.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	query, args, err = sqlx.In(`SELECT id FROM recipes WHERE id IN (?)`, recipeIDs)
	if err != nil {
		return nil, err
	}
	var known []int64
	if err := e.db.Select(&known, e.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	exists := make(map[int64]bool, len(known))
	for _, id := range known {
		exists[id] = true
	}

	byRecipe := make(map[int64][]domain.RecipeIngredient)
	for _, ing := range ingredients {
		byRecipe[ing.RecipeID] = append(byRecipe[ing.RecipeID], ing)
	}

	for _, row := range sold {
		if !exists[row.RecipeID] {
			e.log.WithFields(logrus.Fields{
				"recipe_id": row.RecipeID,
				"date":      date,
			}).Warn("cocktail sales reference a deleted recipe, skipping")
			continue
		}
		for _, ing := range byRecipe[row.RecipeID] {
			usage[ing.ProductID] = usage[ing.ProductID].Add(ing.Quantity.Mul(row.QuantitySold))
		}
	}

	return usage, nil
}

// Projection is the expected-stock breakdown for one product on one day.
type Projection struct {
	BOD            decimal.Decimal `json:"bod"`
	Delivered      decimal.Decimal `json:"delivered"`
	StockAvailable decimal.Decimal `json:"stock_available"`
	ManualSales    decimal.Decimal `json:"manual_sales"`
	Usage          decimal.Decimal `json:"cocktail_usage"`
	ExpectedEOD    decimal.Decimal `json:"expected_eod"`
}

// Project computes expected stock for a product given the day's ingredient
// usage for that product. Missing BOD, delivery, or sale rows count as
// zero; expected EOD is clamped at zero. No rounding is applied here.
func (e *Engine) Project(productID int64, date string, usage decimal.Decimal, level Precision) (Projection, error) {
	bod, err := e.sumOrZero(`SELECT COALESCE(SUM(amount), 0) FROM beginning_of_day WHERE product_id = $1 AND bod_date = $2`, productID, date)
	if err != nil {
		return Projection{}, err
	}
	delivered, err := e.sumOrZero(`SELECT COALESCE(SUM(quantity), 0) FROM deliveries WHERE product_id = $1 AND delivery_date = $2`, productID, date)
	if err != nil {
		return Projection{}, err
	}
	sales, err := e.sumOrZero(`SELECT COALESCE(SUM(quantity_sold), 0) FROM sales WHERE product_id = $1 AND sale_date = $2`, productID, date)
	if err != nil {
		return Projection{}, err
	}

	available := bod.Add(delivered)
	expected := available
	if level == PrecisionFull {
		expected = expected.Sub(sales).Sub(usage)
	}
	if expected.IsNegative() {
		expected = decimal.Zero
	}

	return Projection{
		BOD:            bod,
		Delivered:      delivered,
		StockAvailable: available,
		ManualSales:    sales,
		Usage:          usage,
		ExpectedEOD:    expected,
	}, nil
}

// ProjectDay is Project with the day's ingredient usage looked up first.
func (e *Engine) ProjectDay(productID int64, date string, level Precision) (Projection, error) {
	usage, err := e.UsageForDate(date)
	if err != nil {
		return Projection{}, err
	}
	return e.Project(productID, date, usage[productID], level)
}

func (e *Engine) sumOrZero(query string, args ...any) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := e.db.Get(&total, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return total, nil
}

// LatestCount returns the chronologically latest count for a product on a
// date, or nil when no count exists. An empty location matches counts from
// any location. Equal timestamps fall back to insertion order.
func (e *Engine) LatestCount(productID int64, location, date string) (*domain.Count, error) {
	query := `SELECT id, product_id, location, count_type, user_id, amount, count_date, counted_at, expected_amount, variance_amount
	          FROM counts WHERE product_id = $1 AND count_date = $2`
	args := []any{productID, date}
	if location != "" {
		args = append(args, location)
		query += ` AND location = $3`
	}
	query += ` ORDER BY counted_at DESC, id DESC LIMIT 1`

	var count domain.Count
	if err := e.db.Get(&count, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &count, nil
}

// ResolveVariance returns the current variance for a product on a date,
// alongside the count it came from. At full precision the stored
// variance_amount is used verbatim when present; otherwise, and always at
// the lighter level, it is recomputed against the expected EOD. A nil
// variance means no count was taken that day.
func (e *Engine) ResolveVariance(productID int64, location, date string, level Precision) (*decimal.Decimal, *domain.Count, error) {
	count, err := e.LatestCount(productID, location, date)
	if err != nil || count == nil {
		return nil, nil, err
	}
	if level == PrecisionFull && count.VarianceAmount.Valid {
		v := count.VarianceAmount.Decimal
		return &v, count, nil
	}
	proj, err := e.ProjectDay(productID, date, level)
	if err != nil {
		return nil, nil, err
	}
	v := count.Amount.Sub(proj.ExpectedEOD)
	return &v, count, nil
}

// HistoryPoint is one day in a variance series. Variance is null for days
// without a count.
type HistoryPoint struct {
	Date     string           `json:"date"`
	Variance *decimal.Decimal `json:"variance"`
}

// HistorySeries builds a trailing window of daily variances for a product,
// ending on the given day. Days are independent; no state carries across.
func (e *Engine) HistorySeries(productID int64, end time.Time, days int, level Precision) ([]HistoryPoint, error) {
	if days <= 0 {
		days = 30
	}
	series := make([]HistoryPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := end.AddDate(0, 0, -i).Format("2006-01-02")
		variance, _, err := e.ResolveVariance(productID, "", date, level)
		if err != nil {
			return nil, err
		}
		series = append(series, HistoryPoint{Date: date, Variance: variance})
	}
	return series, nil
}
