package services

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const day = 24 * time.Hour

type rfmGroup struct {
	lastPurchase time.Time
	orders       map[string]struct{}
	monetary     decimal.Decimal
}

// CalculateRFM derives one RFM record per customer. Rows missing the
// customer id, order id or monetary value are skipped. Recency counts whole
// days between referenceDate and the customer's latest purchase.
func CalculateRFM(ds *dataset.Dataset, referenceDate time.Time, monetaryColumn string) ([]models.RFMRecord, error) {
	if err := ds.Require(models.ColCustomerID, models.ColPurchaseTimestamp, models.ColOrderID, monetaryColumn); err != nil {
		return nil, err
	}

	groups := make(map[string]*rfmGroup)
	for _, tx := range ds.Transactions {
		amount := tx.Monetary(monetaryColumn)
		if tx.CustomerID == "" || tx.OrderID == "" || !amount.Valid {
			continue
		}

		g := groups[tx.CustomerID]
		if g == nil {
			g = &rfmGroup{orders: make(map[string]struct{})}
			groups[tx.CustomerID] = g
		}
		if tx.PurchasedAt.After(g.lastPurchase) {
			g.lastPurchase = tx.PurchasedAt
		}
		g.orders[tx.OrderID] = struct{}{}
		g.monetary = g.monetary.Add(amount.Decimal)
	}

	if len(groups) == 0 {
		return nil, errors.EmptyResult("rfm")
	}

	records := make([]models.RFMRecord, 0, len(groups))
	for customerID, g := range groups {
		records = append(records, models.RFMRecord{
			CustomerID: customerID,
			Recency:    recencyDays(referenceDate, g.lastPurchase),
			Frequency:  len(g.orders),
			Monetary:   g.monetary,
		})
	}
	slices.SortFunc(records, func(a, b models.RFMRecord) int {
		return strings.Compare(a.CustomerID, b.CustomerID)
	})

	return records, nil
}

// recencyDays floors the gap to whole days.
func recencyDays(reference, last time.Time) int {
	gap := reference.Sub(last)
	if gap < 0 {
		return 0
	}
	return int(gap / day)
}

// SummarizeRFM builds histogram and box-plot summaries for each metric.
func SummarizeRFM(records []models.RFMRecord, bins int) (recency, frequency, monetary models.MetricSummary) {
	r := make([]float64, len(records))
	f := make([]float64, len(records))
	m := make([]float64, len(records))
	for i, rec := range records {
		r[i] = float64(rec.Recency)
		f[i] = float64(rec.Frequency)
		m[i] = rec.Monetary.InexactFloat64()
	}

	return summarize("Recency", r, bins), summarize("Frequency", f, bins), summarize("Monetary", m, bins)
}

func summarize(metric string, values []float64, bins int) models.MetricSummary {
	return models.MetricSummary{
		Metric:    metric,
		Histogram: Histogram(values, bins),
		Box:       Box(values),
	}
}
