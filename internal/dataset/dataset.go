// Package dataset loads the order CSV into validated transactions.
//
// Loading distinguishes two kinds of defects. Structural defects (the
// purchase timestamp column is absent, no monetary column exists) are
// returned as errors. Row defects (a timestamp that does not parse) drop
// the row and are only counted.
package dataset

import (
	"slices"
	"time"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

// Monetary column candidates in order of preference.
var monetaryCandidates = []string{models.ColPaymentValue, models.ColPrice}

type Dataset struct {
	Transactions   []models.Transaction
	MonetaryColumn string
	ReferenceDate  time.Time
	DroppedRows    int
	InvalidAmounts int

	columns map[string]struct{}
}

// New builds a dataset from already parsed transactions. The reference date
// is the latest purchase timestamp among them.
func New(columns []string, txs []models.Transaction, monetaryColumn string) *Dataset {
	ds := &Dataset{
		Transactions:   txs,
		MonetaryColumn: monetaryColumn,
		columns:        make(map[string]struct{}, len(columns)),
	}
	for _, c := range columns {
		ds.columns[c] = struct{}{}
	}
	ds.ReferenceDate = latestPurchase(txs)
	return ds
}

func (d *Dataset) Len() int {
	return len(d.Transactions)
}

func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.columns[name]
	return ok
}

func (d *Dataset) Columns() []string {
	cols := make([]string, 0, len(d.columns))
	for c := range d.columns {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}

// Require returns a MISSING_COLUMN error naming every absent column.
func (d *Dataset) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !d.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return errors.MissingColumn(missing...)
	}
	return nil
}

// SelectMonetaryColumn prefers payment_value and falls back to price.
func SelectMonetaryColumn(columns []string) (string, error) {
	for _, candidate := range monetaryCandidates {
		if slices.Contains(columns, candidate) {
			return candidate, nil
		}
	}
	return "", errors.NoMonetaryColumn(monetaryCandidates...)
}

func latestPurchase(txs []models.Transaction) time.Time {
	var latest time.Time
	for _, tx := range txs {
		if tx.PurchasedAt.After(latest) {
			latest = tx.PurchasedAt
		}
	}
	return latest
}
