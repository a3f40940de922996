package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// LoadProducts ingests the CSV catalog into the products table, ignoring
// duplicates. Expected columns: name, unit, unit_price (optional).
func LoadProducts(db *sqlx.DB, csvPath string, log *logrus.Logger) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Warnf("unable to load product catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Warnf("unable to read product header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Warnf("unable to start product transaction: %v", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO products (name, unit, unit_price) VALUES (?, ?, ?)`)
	if err != nil {
		log.Warnf("unable to prepare product insert: %v", err)
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warnf("unable to read product row: %v", err)
			continue
		}
		if len(record) < 2 {
			continue
		}
		name := strings.TrimSpace(record[0])
		unit := strings.TrimSpace(record[1])
		if name == "" || unit == "" {
			continue
		}

		var price *string
		if len(record) >= 3 {
			if p := strings.TrimSpace(record[2]); p != "" {
				price = &p
			}
		}

		if _, err := stmt.Exec(name, unit, price); err != nil {
			log.Warnf("unable to insert product %s: %v", name, err)
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Warnf("unable to commit product seed: %v", err)
	} else {
		log.Infof("seeded product catalog with %d rows", rows)
	}
}
