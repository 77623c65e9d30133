package services

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

type keyed[V any] struct {
	key   string
	value V
}

// countDistinctOrders groups by key and counts distinct non-empty order ids.
// Rows with an empty key are not grouped. The result is ordered by key.
func countDistinctOrders(txs []models.Transaction, key func(models.Transaction) string) []keyed[int] {
	groups := make(map[string]map[string]struct{})
	for _, tx := range txs {
		k := key(tx)
		if k == "" {
			continue
		}
		orders := groups[k]
		if orders == nil {
			orders = make(map[string]struct{})
			groups[k] = orders
		}
		if tx.OrderID != "" {
			orders[tx.OrderID] = struct{}{}
		}
	}

	result := make([]keyed[int], 0, len(groups))
	for k, orders := range groups {
		result = append(result, keyed[int]{key: k, value: len(orders)})
	}
	slices.SortFunc(result, func(a, b keyed[int]) int { return cmp.Compare(a.key, b.key) })
	return result
}

func sumMonetary(txs []models.Transaction, column string, key func(models.Transaction) string) []keyed[decimal.Decimal] {
	groups := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		k := key(tx)
		if k == "" {
			continue
		}
		sum := groups[k]
		if amount := tx.Monetary(column); amount.Valid {
			sum = sum.Add(amount.Decimal)
		}
		groups[k] = sum
	}

	result := make([]keyed[decimal.Decimal], 0, len(groups))
	for k, v := range groups {
		result = append(result, keyed[decimal.Decimal]{key: k, value: v})
	}
	slices.SortFunc(result, func(a, b keyed[decimal.Decimal]) int { return cmp.Compare(a.key, b.key) })
	return result
}

// largest returns the n greatest groups, descending. Ties keep key order.
func largest[V any](groups []keyed[V], n int, compare func(a, b V) int) []keyed[V] {
	sorted := slices.Clone(groups)
	slices.SortStableFunc(sorted, func(a, b keyed[V]) int { return compare(b.value, a.value) })
	return sorted[:min(n, len(sorted))]
}

// smallest returns the n least groups, ascending. Ties keep key order.
func smallest[V any](groups []keyed[V], n int, compare func(a, b V) int) []keyed[V] {
	sorted := slices.Clone(groups)
	slices.SortStableFunc(sorted, func(a, b keyed[V]) int { return compare(a.value, b.value) })
	return sorted[:min(n, len(sorted))]
}

func byCity(tx models.Transaction) string     { return tx.City }
func byCategory(tx models.Transaction) string { return tx.Category }
func bySeller(tx models.Transaction) string   { return tx.SellerID }

func compareDecimal(a, b decimal.Decimal) int { return a.Cmp(b) }

func CityOrderCounts(ds *dataset.Dataset, n int) (models.CityReport, error) {
	if err := ds.Require(models.ColCity, models.ColOrderID); err != nil {
		return models.CityReport{}, err
	}

	groups := countDistinctOrders(ds.Transactions, byCity)
	if len(groups) == 0 {
		return models.CityReport{}, errors.EmptyResult("cities")
	}

	toCity := func(g keyed[int]) models.CityOrders {
		return models.CityOrders{City: g.key, Orders: g.value}
	}
	return models.CityReport{
		Top:    mapSlice(largest(groups, n, cmp.Compare[int]), toCity),
		Bottom: mapSlice(smallest(groups, n, cmp.Compare[int]), toCity),
	}, nil
}

func TopCategories(ds *dataset.Dataset, n int) ([]models.CategoryOrders, error) {
	if err := ds.Require(models.ColCategory, models.ColOrderID); err != nil {
		return nil, err
	}

	groups := countDistinctOrders(ds.Transactions, byCategory)
	if len(groups) == 0 {
		return nil, errors.EmptyResult("categories")
	}

	return mapSlice(largest(groups, n, cmp.Compare[int]), func(g keyed[int]) models.CategoryOrders {
		return models.CategoryOrders{Category: g.key, Orders: g.value}
	}), nil
}

// CategoryRevenueRanking sums the monetary column per category. Missing
// amounts contribute nothing to the sum.
func CategoryRevenueRanking(ds *dataset.Dataset, n int) (models.CategoryRevenueReport, error) {
	if err := ds.Require(models.ColCategory, ds.MonetaryColumn); err != nil {
		return models.CategoryRevenueReport{}, err
	}

	groups := sumMonetary(ds.Transactions, ds.MonetaryColumn, byCategory)
	if len(groups) == 0 {
		return models.CategoryRevenueReport{}, errors.EmptyResult("category-revenue")
	}

	toRevenue := func(g keyed[decimal.Decimal]) models.CategoryRevenue {
		return models.CategoryRevenue{Category: g.key, Revenue: g.value}
	}
	return models.CategoryRevenueReport{
		MonetaryColumn: ds.MonetaryColumn,
		Top:            mapSlice(largest(groups, n, compareDecimal), toRevenue),
		Bottom:         mapSlice(smallest(groups, n, compareDecimal), toRevenue),
	}, nil
}

// SellerPareto ranks sellers by distinct orders and returns the top n with
// their cumulative share of those n sellers' orders.
func SellerPareto(ds *dataset.Dataset, n int) (models.ParetoReport, error) {
	if err := ds.Require(models.ColSellerID, models.ColOrderID); err != nil {
		return models.ParetoReport{}, err
	}

	groups := countDistinctOrders(ds.Transactions, bySeller)
	if len(groups) == 0 {
		return models.ParetoReport{}, errors.EmptyResult("sellers")
	}

	top := largest(groups, n, cmp.Compare[int])
	counts := mapSlice(top, func(g keyed[int]) int { return g.value })
	cumulative := ParetoCumulative(counts)

	report := models.ParetoReport{Sellers: make([]models.SellerShare, len(top))}
	for i, g := range top {
		report.Sellers[i] = models.SellerShare{
			SellerID:      g.key,
			Orders:        g.value,
			CumulativePct: cumulative[i],
		}
		report.TotalOrders += g.value
	}
	return report, nil
}

// ParetoCumulative returns running totals as a percentage of the sum of
// counts. All zeros yield all zeros.
func ParetoCumulative(counts []int) []float64 {
	total := 0
	for _, c := range counts {
		total += c
	}

	result := make([]float64, len(counts))
	if total == 0 {
		return result
	}

	running := 0
	for i, c := range counts {
		running += c
		result[i] = float64(running) * 100 / float64(total)
	}
	return result
}

func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
