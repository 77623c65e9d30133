package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const ctxCheckInterval = 4096

// Cells read as missing.
var missingValues = []string{"", "NA", "NaN", "<nil>"}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func Load(ctx context.Context, filename string) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Read(ctx, file)
}

// Read parses CSV content. I/O and CSV syntax failures are returned
// wrapped; schema failures are returned as *errors.AppError. A header
// without rows yields an empty dataset.
func Read(ctx context.Context, r io.Reader) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.MissingColumn(models.ColPurchaseTimestamp)
	}

	names := records[0]
	ds := New(names, nil, "")

	if !ds.HasColumn(models.ColPurchaseTimestamp) {
		return nil, errors.MissingColumn(models.ColPurchaseTimestamp)
	}

	monetary, err := SelectMonetaryColumn(names)
	if err != nil {
		return nil, err
	}
	ds.MonetaryColumn = monetary

	if len(records) == 1 {
		return ds, nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missingValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}

	var (
		timestamps   = columnValues(df, ds, models.ColPurchaseTimestamp)
		customers    = columnValues(df, ds, models.ColCustomerID)
		orders       = columnValues(df, ds, models.ColOrderID)
		categories   = columnValues(df, ds, models.ColCategory)
		cities       = columnValues(df, ds, models.ColCity)
		sellers      = columnValues(df, ds, models.ColSellerID)
		prices       = columnValues(df, ds, models.ColPrice)
		paymentValue = columnValues(df, ds, models.ColPaymentValue)
	)

	nrows := df.Nrow()
	txs := make([]models.Transaction, 0, nrows)
	for i := 0; i < nrows; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		purchasedAt, ok := parseTimestamp(timestamps[i])
		if !ok {
			ds.DroppedRows++
			continue
		}

		tx := models.Transaction{
			CustomerID:  customers[i],
			OrderID:     orders[i],
			PurchasedAt: purchasedAt,
			Category:    categories[i],
			City:        cities[i],
			SellerID:    sellers[i],
		}

		var bad bool
		tx.Price, bad = parseAmount(prices[i])
		if bad && monetary == models.ColPrice {
			ds.InvalidAmounts++
		}
		tx.PaymentValue, bad = parseAmount(paymentValue[i])
		if bad && monetary == models.ColPaymentValue {
			ds.InvalidAmounts++
		}

		txs = append(txs, tx)
	}

	ds.Transactions = txs
	ds.ReferenceDate = latestPurchase(txs)
	return ds, nil
}

// columnValues returns the trimmed cells of a column with missing cells as
// "". Absent columns yield all-empty values.
func columnValues(df dataframe.DataFrame, ds *Dataset, name string) []string {
	values := make([]string, df.Nrow())
	if !ds.HasColumn(name) {
		return values
	}

	col := df.Col(name)
	records := col.Records()
	nan := col.IsNaN()
	for i := range values {
		if nan[i] {
			continue
		}
		values[i] = strings.TrimSpace(records[i])
	}
	return values
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount reports bad=true when a non-empty cell is not a number.
func parseAmount(value string) (amount decimal.NullDecimal, bad bool) {
	if value == "" {
		return decimal.NullDecimal{}, false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, true
	}
	return decimal.NewNullDecimal(d), false
}
