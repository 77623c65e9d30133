package services

import (
	"math"
	"slices"

	"olist-dashboard/internal/models"
)

const whiskerIQR = 1.5

// Histogram splits [min, max] into equal-width bins. The last bin is closed
// on the right. A constant sample yields one bin holding every value.
func Histogram(values []float64, bins int) []models.HistogramBin {
	if len(values) == 0 || bins <= 0 {
		return []models.HistogramBin{}
	}

	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		return []models.HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	result := make([]models.HistogramBin, bins)
	for i := range result {
		result[i].Lower = lo + float64(i)*width
		result[i].Upper = lo + float64(i+1)*width
	}
	result[bins-1].Upper = hi

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		result[idx].Count++
	}
	return result
}

// Box computes quartiles with linear interpolation and Tukey whiskers.
func Box(values []float64) models.BoxStats {
	if len(values) == 0 {
		return models.BoxStats{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	stats := models.BoxStats{
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}

	iqr := stats.Q3 - stats.Q1
	lowFence := stats.Q1 - whiskerIQR*iqr
	highFence := stats.Q3 + whiskerIQR*iqr

	stats.LowerWhisker = stats.Max
	stats.UpperWhisker = stats.Min
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			stats.Outliers++
			continue
		}
		stats.LowerWhisker = math.Min(stats.LowerWhisker, v)
		stats.UpperWhisker = math.Max(stats.UpperWhisker, v)
	}
	return stats
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
