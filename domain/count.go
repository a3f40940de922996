package domain

import "github.com/shopspring/decimal"

const (
	CountTypeFirst       = "First Count"
	CountTypeCorrections = "Corrections Count"
)

// Count is one physical stock count. Rows are append-only: a correction is
// a new row with its own type and timestamp, never an update.
type Count struct {
	ID             int64               `db:"id" json:"id"`
	ProductID      int64               `db:"product_id" json:"product_id"`
	Location       string              `db:"location" json:"location"`
	CountType      string              `db:"count_type" json:"count_type"`
	UserID         int64               `db:"user_id" json:"user_id"`
	Amount         decimal.Decimal     `db:"amount" json:"amount"`
	CountDate      string              `db:"count_date" json:"count_date"`
	CountedAt      string              `db:"counted_at" json:"counted_at"`
	ExpectedAmount decimal.NullDecimal `db:"expected_amount" json:"expected_amount,omitempty"`
	VarianceAmount decimal.NullDecimal `db:"variance_amount" json:"variance_amount,omitempty"`
}

// VarianceExplanation records why a count deviated. One row per count,
// latest reason wins.
type VarianceExplanation struct {
	ID        int64  `db:"id" json:"id"`
	CountID   int64  `db:"count_id" json:"count_id"`
	Reason    string `db:"reason" json:"reason"`
	UserID    int64  `db:"user_id" json:"user_id"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
