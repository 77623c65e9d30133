package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RFMRecord holds the per-customer Recency (days), Frequency (distinct
// orders) and Monetary (total spend) metrics.
type RFMRecord struct {
	CustomerID string          `json:"customer_unique_id"`
	Recency    int             `json:"recency"`
	Frequency  int             `json:"frequency"`
	Monetary   decimal.Decimal `json:"monetary"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type BoxStats struct {
	Min          float64 `json:"min"`
	Q1           float64 `json:"q1"`
	Median       float64 `json:"median"`
	Q3           float64 `json:"q3"`
	Max          float64 `json:"max"`
	LowerWhisker float64 `json:"lower_whisker"`
	UpperWhisker float64 `json:"upper_whisker"`
	Outliers     int     `json:"outliers"`
}

type MetricSummary struct {
	Metric    string         `json:"metric"`
	Histogram []HistogramBin `json:"histogram"`
	Box       BoxStats       `json:"box"`
}

type RFMReport struct {
	ReferenceDate  time.Time     `json:"reference_date"`
	MonetaryColumn string        `json:"monetary_column"`
	Customers      int           `json:"customers"`
	Recency        MetricSummary `json:"recency"`
	Frequency      MetricSummary `json:"frequency"`
	Monetary       MetricSummary `json:"monetary"`
}
