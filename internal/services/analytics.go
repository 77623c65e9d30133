package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const (
	TopN          = 5
	ParetoSellers = 10
	HistogramBins = 30
)

// Analytics holds the dataset loaded at startup. Every view is recomputed
// from it on each call; nothing derived is cached.
type Analytics struct {
	mu       sync.RWMutex
	data     *dataset.Dataset
	loadErr  error
	csvPath  string
	loadedAt time.Time
	logger   *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		logger: slog.Default(),
	}
}

func (a *Analytics) SetData(ds *dataset.Dataset) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.data = ds
	a.loadErr = nil
	a.loadedAt = time.Now()
}

// LoadFromCSV reads the dataset. Schema errors (*errors.AppError) are kept
// and reported by every view; the caller may keep serving. Other errors
// mean the file could not be read at all.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	start := time.Now()
	a.logger.Info("processing CSV file", "filename", filename)

	ds, err := dataset.Load(ctx, filename)

	a.mu.Lock()
	a.csvPath = filename
	a.loadedAt = time.Now()
	a.data = ds
	a.loadErr = err
	a.mu.Unlock()

	if err != nil {
		if _, ok := errors.As(err); ok {
			a.logger.Warn("dataset failed validation", "filename", filename, "error", err)
			return err
		}
		return fmt.Errorf("load dataset: %w", err)
	}

	duration := time.Since(start)
	a.logger.Info("csv processing complete",
		"records", ds.Len(),
		"dropped_rows", ds.DroppedRows,
		"invalid_amounts", ds.InvalidAmounts,
		"monetary_column", ds.MonetaryColumn,
		"reference_date", ds.ReferenceDate,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(ds.Len())/duration.Seconds()))

	return nil
}

func (a *Analytics) dataset() (*dataset.Dataset, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.loadErr != nil {
		return nil, a.loadErr
	}
	if a.data == nil {
		return nil, errors.ServiceUnavailable("dataset not loaded")
	}
	return a.data, nil
}

func (a *Analytics) Cities() (models.CityReport, error) {
	ds, err := a.dataset()
	if err != nil {
		return models.CityReport{}, err
	}
	return CityOrderCounts(ds, TopN)
}

func (a *Analytics) Categories() ([]models.CategoryOrders, error) {
	ds, err := a.dataset()
	if err != nil {
		return nil, err
	}
	return TopCategories(ds, TopN)
}

func (a *Analytics) CategoryRevenue() (models.CategoryRevenueReport, error) {
	ds, err := a.dataset()
	if err != nil {
		return models.CategoryRevenueReport{}, err
	}
	return CategoryRevenueRanking(ds, TopN)
}

func (a *Analytics) Sellers() (models.ParetoReport, error) {
	ds, err := a.dataset()
	if err != nil {
		return models.ParetoReport{}, err
	}
	return SellerPareto(ds, ParetoSellers)
}

func (a *Analytics) RFM() ([]models.RFMRecord, error) {
	ds, err := a.dataset()
	if err != nil {
		return nil, err
	}
	return CalculateRFM(ds, ds.ReferenceDate, ds.MonetaryColumn)
}

func (a *Analytics) RFMReport() (models.RFMReport, error) {
	ds, err := a.dataset()
	if err != nil {
		return models.RFMReport{}, err
	}

	records, err := CalculateRFM(ds, ds.ReferenceDate, ds.MonetaryColumn)
	if err != nil {
		return models.RFMReport{}, err
	}

	report := models.RFMReport{
		ReferenceDate:  ds.ReferenceDate,
		MonetaryColumn: ds.MonetaryColumn,
		Customers:      len(records),
	}
	report.Recency, report.Frequency, report.Monetary = SummarizeRFM(records, HistogramBins)
	return report, nil
}

// Views is the result of computing every dashboard section. A failing
// section carries its error and leaves the others intact.
type Views struct {
	Cities             models.CityReport
	CitiesErr          error
	Categories         []models.CategoryOrders
	CategoriesErr      error
	CategoryRevenue    models.CategoryRevenueReport
	CategoryRevenueErr error
	Sellers            models.ParetoReport
	SellersErr         error
	RFM                models.RFMReport
	RFMErr             error
}

func (a *Analytics) AllViews(ctx context.Context) (*Views, error) {
	v := &Views{}
	g, ctx := errgroup.WithContext(ctx)

	run := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	run(func() { v.Cities, v.CitiesErr = a.Cities() })
	run(func() { v.Categories, v.CategoriesErr = a.Categories() })
	run(func() { v.CategoryRevenue, v.CategoryRevenueErr = a.CategoryRevenue() })
	run(func() { v.Sellers, v.SellersErr = a.Sellers() })
	run(func() { v.RFM, v.RFMErr = a.RFMReport() })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"csv_file":  a.csvPath,
		"loaded_at": a.loadedAt,
	}
	if a.loadErr != nil {
		stats["load_error"] = a.loadErr.Error()
	}
	if a.data != nil {
		stats["record_count"] = a.data.Len()
		stats["dropped_rows"] = a.data.DroppedRows
		stats["invalid_amounts"] = a.data.InvalidAmounts
		stats["monetary_column"] = a.data.MonetaryColumn
		stats["reference_date"] = a.data.ReferenceDate
		stats["columns"] = a.data.Columns()
	}
	return stats
}
