package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"barback/b/domain"
	"barback/b/internal/inventory"
)

// Reporting endpoints. All quantities are rounded to 2 decimal places
// here, at the presentation boundary; the engine never rounds.

type summaryRow struct {
	ProductID      int64            `json:"product_id"`
	Name           string           `json:"name"`
	Unit           string           `json:"unit"`
	BOD            decimal.Decimal  `json:"bod"`
	Delivered      decimal.Decimal  `json:"delivered"`
	ManualSales    decimal.Decimal  `json:"manual_sales"`
	CocktailUsage  decimal.Decimal  `json:"cocktail_usage"`
	ExpectedEOD    decimal.Decimal  `json:"expected_eod"`
	CountedAmount  *decimal.Decimal `json:"counted_amount,omitempty"`
	VarianceAmount *decimal.Decimal `json:"variance_amount,omitempty"`
}

func (h *Handler) dailySummary(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opReportsView) {
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var products []domain.Product
	if err := h.db.Select(&products, `SELECT id, name, unit, unit_price, created_at FROM products ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load products")
		return
	}

	usage, err := h.engine.UsageForDate(date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute ingredient usage")
		return
	}

	rows := make([]summaryRow, 0, len(products))
	for _, product := range products {
		proj, err := h.engine.Project(product.ID, date, usage[product.ID], inventory.PrecisionFull)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to project stock")
			return
		}
		row := summaryRow{
			ProductID:     product.ID,
			Name:          product.Name,
			Unit:          product.Unit,
			BOD:           proj.BOD.Round(2),
			Delivered:     proj.Delivered.Round(2),
			ManualSales:   proj.ManualSales.Round(2),
			CocktailUsage: proj.Usage.Round(2),
			ExpectedEOD:   proj.ExpectedEOD.Round(2),
		}
		count, err := h.engine.LatestCount(product.ID, "", date)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load counts")
			return
		}
		if count != nil {
			counted := count.Amount.Round(2)
			row.CountedAmount = &counted
			var variance decimal.Decimal
			if count.VarianceAmount.Valid {
				variance = count.VarianceAmount.Decimal
			} else {
				variance = count.Amount.Sub(proj.ExpectedEOD)
			}
			variance = variance.Round(2)
			row.VarianceAmount = &variance
		}
		rows = append(rows, row)
	}

	respondJSON(w, http.StatusOK, map[string]any{"date": date, "products": rows})
}

type countFigure struct {
	CountID  int64           `json:"count_id"`
	UserID   int64           `json:"user_id"`
	Amount   decimal.Decimal `json:"amount"`
	Variance decimal.Decimal `json:"variance"`
}

type varianceRow struct {
	ProductID       int64            `json:"product_id"`
	Name            string           `json:"name"`
	Location        string           `json:"location"`
	ExpectedEOD     decimal.Decimal  `json:"expected_eod"`
	First           *countFigure     `json:"first_count,omitempty"`
	Corrections     *countFigure     `json:"corrections_count,omitempty"`
	CorrectionDelta *decimal.Decimal `json:"correction_delta,omitempty"`
}

// varianceReport pairs the First Count with the Corrections Count for
// each product/location on the date, comparing them to each other rather
// than only surfacing the latest.
func (h *Handler) varianceReport(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opReportsView) {
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var counts []domain.Count
	err = h.db.Select(&counts, `SELECT id, product_id, location, count_type, user_id, amount, count_date, counted_at, expected_amount, variance_amount
		FROM counts WHERE count_date = $1 ORDER BY counted_at ASC, id ASC`, date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load counts")
		return
	}
	if len(counts) == 0 {
		respondJSON(w, http.StatusOK, map[string]any{"date": date, "rows": []varianceRow{}})
		return
	}

	usage, err := h.engine.UsageForDate(date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute ingredient usage")
		return
	}

	names := make(map[int64]string)
	var products []domain.Product
	if err := h.db.Select(&products, `SELECT id, name, unit, unit_price, created_at FROM products`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load products")
		return
	}
	for _, product := range products {
		names[product.ID] = product.Name
	}

	type key struct {
		productID int64
		location  string
	}
	grouped := make(map[key][]domain.Count)
	order := make([]key, 0)
	for _, count := range counts {
		k := key{count.ProductID, count.Location}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], count)
	}

	rows := make([]varianceRow, 0, len(order))
	for _, k := range order {
		proj, err := h.engine.Project(k.productID, date, usage[k.productID], inventory.PrecisionFull)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to project stock")
			return
		}
		row := varianceRow{
			ProductID:   k.productID,
			Name:        names[k.productID],
			Location:    k.location,
			ExpectedEOD: proj.ExpectedEOD.Round(2),
		}
		for _, count := range grouped[k] {
			figure := &countFigure{
				CountID:  count.ID,
				UserID:   count.UserID,
				Amount:   count.Amount.Round(2),
				Variance: resolveStoredVariance(count, proj.ExpectedEOD).Round(2),
			}
			switch count.CountType {
			case domain.CountTypeFirst:
				// Keep the earliest first count; rows arrive in time order.
				if row.First == nil {
					row.First = figure
				}
			case domain.CountTypeCorrections:
				// The latest correction wins.
				row.Corrections = figure
			}
		}
		if row.First != nil && row.Corrections != nil {
			delta := row.Corrections.Amount.Sub(row.First.Amount).Round(2)
			row.CorrectionDelta = &delta
		}
		rows = append(rows, row)
	}

	respondJSON(w, http.StatusOK, map[string]any{"date": date, "rows": rows})
}

func resolveStoredVariance(count domain.Count, expected decimal.Decimal) decimal.Decimal {
	if count.VarianceAmount.Valid {
		return count.VarianceAmount.Decimal
	}
	return count.Amount.Sub(expected)
}

func (h *Handler) varianceHistory(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opReportsView) {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID); err != nil || !exists {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = 30
	}

	series, err := h.engine.HistorySeries(productID, time.Now(), days, inventory.PrecisionFull)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to build history")
		return
	}
	for i := range series {
		if series[i].Variance != nil {
			rounded := series[i].Variance.Round(2)
			series[i].Variance = &rounded
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"product_id": productID, "days": days, "series": series})
}

type alertRow struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Location  string          `json:"location"`
	CountID   int64           `json:"count_id"`
	Variance  decimal.Decimal `json:"variance"`
}

// dashboardAlerts surfaces only non-zero variances; products without a
// count that day are omitted entirely rather than reported as zero.
func (h *Handler) dashboardAlerts(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opReportsView) {
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	level := inventory.ParsePrecision(r.URL.Query().Get("precision"))

	type counted struct {
		ProductID int64  `db:"product_id"`
		Location  string `db:"location"`
		Name      string `db:"name"`
	}
	var subjects []counted
	err = h.db.Select(&subjects, `SELECT DISTINCT c.product_id, c.location, p.name
		FROM counts c JOIN products p ON p.id = c.product_id
		WHERE c.count_date = $1 ORDER BY p.name, c.location`, date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load counted products")
		return
	}

	alerts := make([]alertRow, 0, len(subjects))
	for _, subject := range subjects {
		variance, count, err := h.engine.ResolveVariance(subject.ProductID, subject.Location, date, level)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to resolve variance")
			return
		}
		if variance == nil || variance.IsZero() {
			continue
		}
		alerts = append(alerts, alertRow{
			ProductID: subject.ProductID,
			Name:      subject.Name,
			Location:  subject.Location,
			CountID:   count.ID,
			Variance:  variance.Round(2),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"date": date, "alerts": alerts})
}
