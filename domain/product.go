package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID        int64            `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Unit      string           `db:"unit" json:"unit"`
	UnitPrice *decimal.Decimal `db:"unit_price" json:"unit_price,omitempty"`
	CreatedAt string           `db:"created_at" json:"created_at"`
}

type Location struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
