package handlers

import (
	"fmt"
	"math"
	"strconv"

	"olist-dashboard/internal/models"
)

// Chart payloads sent as Datastar signals. Values are plain numbers so the
// browser can plot them without parsing decimal strings.

type barSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type paretoSeries struct {
	Labels     []string  `json:"labels"`
	Orders     []float64 `json:"orders"`
	Cumulative []float64 `json:"cumulative"`
}

type distributionSeries struct {
	Labels []string        `json:"labels"`
	Counts []int           `json:"counts"`
	Box    models.BoxStats `json:"box"`
}

const maxLabelDecimals = 6

func cityBars(rows []models.CityOrders) barSeries {
	s := barSeries{Labels: make([]string, len(rows)), Values: make([]float64, len(rows))}
	for i, r := range rows {
		s.Labels[i], s.Values[i] = r.City, float64(r.Orders)
	}
	return s
}

func categoryBars(rows []models.CategoryOrders) barSeries {
	s := barSeries{Labels: make([]string, len(rows)), Values: make([]float64, len(rows))}
	for i, r := range rows {
		s.Labels[i], s.Values[i] = r.Category, float64(r.Orders)
	}
	return s
}

func revenueBars(rows []models.CategoryRevenue) barSeries {
	s := barSeries{Labels: make([]string, len(rows)), Values: make([]float64, len(rows))}
	for i, r := range rows {
		s.Labels[i], s.Values[i] = r.Category, r.Revenue.InexactFloat64()
	}
	return s
}

func paretoChart(report models.ParetoReport) paretoSeries {
	n := len(report.Sellers)
	s := paretoSeries{
		Labels:     make([]string, n),
		Orders:     make([]float64, n),
		Cumulative: make([]float64, n),
	}
	for i, seller := range report.Sellers {
		s.Labels[i] = seller.SellerID
		s.Orders[i] = float64(seller.Orders)
		s.Cumulative[i] = seller.CumulativePct
	}
	return s
}

func distribution(m models.MetricSummary) distributionSeries {
	s := distributionSeries{
		Labels: make([]string, len(m.Histogram)),
		Counts: make([]int, len(m.Histogram)),
		Box:    m.Box,
	}
	prec := binPrecision(m.Histogram)
	for i, bin := range m.Histogram {
		if bin.Lower == bin.Upper {
			s.Labels[i] = strconv.FormatFloat(bin.Lower, 'f', -1, 64)
		} else {
			s.Labels[i] = fmt.Sprintf("%.*f-%.*f", prec, bin.Lower, prec, bin.Upper)
		}
		s.Counts[i] = bin.Count
	}
	return s
}

// binPrecision returns the decimals needed so adjacent bin bounds never
// print the same. Bounds are at least one width apart, so rounding to a
// step no larger than the width keeps them distinct.
func binPrecision(bins []models.HistogramBin) int {
	if len(bins) == 0 {
		return 0
	}
	width := bins[0].Upper - bins[0].Lower
	if width <= 0 || width >= 1 {
		return 0
	}
	return min(int(math.Ceil(-math.Log10(width))), maxLabelDecimals)
}
