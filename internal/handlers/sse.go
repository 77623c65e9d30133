package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
)

// Section element ids patched by the SSE handlers.
const (
	sectionCities          = "cities-content"
	sectionCategories      = "categories-content"
	sectionCategoryRevenue = "revenue-content"
	sectionSellers         = "sellers-content"
	sectionRFM             = "rfm-content"
)

var funcs = template.FuncMap{
	"brl":   formatBRL,
	"count": formatCount,
	"pct":   func(v float64) string { return ptBR.Sprintf("%.1f%%", v) },
}

var sectionTemplates = template.Must(template.New("sections").Funcs(funcs).Parse(`
{{define "cities"}}<div id="cities-content">
<div class="grid-2">
<table class="modern-table"><caption>5 cities with the most orders</caption>
<thead><tr><th>City</th><th>Orders</th></tr></thead>
<tbody>{{range .Top}}<tr><td>{{.City}}</td><td>{{count .Orders}}</td></tr>{{end}}</tbody>
</table>
<table class="modern-table"><caption>5 cities with the fewest orders</caption>
<thead><tr><th>City</th><th>Orders</th></tr></thead>
<tbody>{{range .Bottom}}<tr><td>{{.City}}</td><td>{{count .Orders}}</td></tr>{{end}}</tbody>
</table>
</div>
</div>{{end}}

{{define "categories"}}<div id="categories-content">
<table class="modern-table"><caption>Top 5 product categories by orders</caption>
<thead><tr><th>Category</th><th>Orders</th></tr></thead>
<tbody>{{range .}}<tr><td><span class="category-badge">{{.Category}}</span></td><td>{{count .Orders}}</td></tr>{{end}}</tbody>
</table>
</div>{{end}}

{{define "revenue"}}<div id="revenue-content">
<div class="grid-2">
<table class="modern-table"><caption>Top 5 categories by revenue ({{.MonetaryColumn}})</caption>
<thead><tr><th>Category</th><th>Revenue</th></tr></thead>
<tbody>{{range .Top}}<tr><td><span class="category-badge">{{.Category}}</span></td><td><strong>{{brl .Revenue}}</strong></td></tr>{{end}}</tbody>
</table>
<table class="modern-table"><caption>Bottom 5 categories by revenue ({{.MonetaryColumn}})</caption>
<thead><tr><th>Category</th><th>Revenue</th></tr></thead>
<tbody>{{range .Bottom}}<tr><td><span class="category-badge">{{.Category}}</span></td><td><strong>{{brl .Revenue}}</strong></td></tr>{{end}}</tbody>
</table>
</div>
</div>{{end}}

{{define "sellers"}}<div id="sellers-content">
<table class="modern-table"><caption>Top 10 sellers by orders ({{count .TotalOrders}} orders)</caption>
<thead><tr><th>Seller</th><th>Orders</th><th>Cumulative</th></tr></thead>
<tbody>{{range .Sellers}}<tr><td><code>{{.SellerID}}</code></td><td>{{count .Orders}}</td><td>{{pct .CumulativePct}}</td></tr>{{end}}</tbody>
</table>
</div>{{end}}

{{define "rfm"}}<div id="rfm-content">
<p class="muted">{{count .Customers}} customers, reference date {{.ReferenceDate.Format "2006-01-02 15:04"}}, monetary column {{.MonetaryColumn}}</p>
<table class="modern-table">
<thead><tr><th>Metric</th><th>Min</th><th>Q1</th><th>Median</th><th>Q3</th><th>Max</th><th>Outliers</th></tr></thead>
<tbody>{{range .Metrics}}<tr><td>{{.Metric}}</td><td>{{printf "%.2f" .Box.Min}}</td><td>{{printf "%.2f" .Box.Q1}}</td><td>{{printf "%.2f" .Box.Median}}</td><td>{{printf "%.2f" .Box.Q3}}</td><td>{{printf "%.2f" .Box.Max}}</td><td>{{count .Box.Outliers}}</td></tr>{{end}}</tbody>
</table>
</div>{{end}}

{{define "error"}}<div id="{{.ID}}">
<div class="alert alert-error" role="alert"><strong>{{.Message}}</strong>{{if .Details}}: {{.Details}}{{end}}</div>
</div>{{end}}
`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type rfmTemplateData struct {
	models.RFMReport
	Metrics []models.MetricSummary
}

type errorTemplateData struct {
	ID      string
	Message string
	Details string
}

func render(name string, data any) (string, error) {
	var buf strings.Builder
	err := sectionTemplates.ExecuteTemplate(&buf, name, data)
	return buf.String(), err
}

// renderError turns a view failure into the banner that replaces the section.
func renderError(sectionID string, err error) (string, error) {
	data := errorTemplateData{ID: sectionID, Message: "An unexpected error occurred"}
	if appErr, ok := errors.As(err); ok {
		data.Message = appErr.Message
		data.Details = appErr.Details
	}
	return render("error", data)
}

// section is one dashboard view: its HTML fragment and chart signals.
type section struct {
	html    string
	signals map[string]any
}

func (h *SSEHandlers) citiesSection(report models.CityReport, err error) (section, error) {
	if err != nil {
		html, rerr := renderError(sectionCities, err)
		return section{html: html}, rerr
	}
	html, err := render("cities", report)
	return section{html: html, signals: map[string]any{
		"citiesTop":    cityBars(report.Top),
		"citiesBottom": cityBars(report.Bottom),
	}}, err
}

func (h *SSEHandlers) categoriesSection(rows []models.CategoryOrders, err error) (section, error) {
	if err != nil {
		html, rerr := renderError(sectionCategories, err)
		return section{html: html}, rerr
	}
	html, err := render("categories", rows)
	return section{html: html, signals: map[string]any{
		"categoriesTop": categoryBars(rows),
	}}, err
}

func (h *SSEHandlers) revenueSection(report models.CategoryRevenueReport, err error) (section, error) {
	if err != nil {
		html, rerr := renderError(sectionCategoryRevenue, err)
		return section{html: html}, rerr
	}
	html, err := render("revenue", report)
	return section{html: html, signals: map[string]any{
		"revenueTop":    revenueBars(report.Top),
		"revenueBottom": revenueBars(report.Bottom),
	}}, err
}

func (h *SSEHandlers) sellersSection(report models.ParetoReport, err error) (section, error) {
	if err != nil {
		html, rerr := renderError(sectionSellers, err)
		return section{html: html}, rerr
	}
	html, err := render("sellers", report)
	return section{html: html, signals: map[string]any{
		"pareto": paretoChart(report),
	}}, err
}

func (h *SSEHandlers) rfmSection(report models.RFMReport, err error) (section, error) {
	if err != nil {
		html, rerr := renderError(sectionRFM, err)
		return section{html: html}, rerr
	}
	html, err := render("rfm", rfmTemplateData{
		RFMReport: report,
		Metrics:   []models.MetricSummary{report.Recency, report.Frequency, report.Monetary},
	})
	return section{html: html, signals: map[string]any{
		"rfmRecency":   distribution(report.Recency),
		"rfmFrequency": distribution(report.Frequency),
		"rfmMonetary":  distribution(report.Monetary),
	}}, err
}

// send patches the given sections, merging their signals into one patch.
func (h *SSEHandlers) send(w http.ResponseWriter, r *http.Request, sections ...section) {
	sse := datastar.NewSSE(w, r)

	signals := make(map[string]any)
	for _, s := range sections {
		if err := sse.PatchElements(s.html); err != nil {
			h.logger.Error("patch elements", "error", err)
			return
		}
		for k, v := range s.signals {
			signals[k] = v
		}
	}

	if len(signals) > 0 {
		jsonData, err := json.Marshal(signals)
		if err != nil {
			h.logger.Error("marshal signals", "error", err)
			return
		}
		if err := sse.PatchSignals(jsonData); err != nil {
			h.logger.Error("patch signals", "error", err)
			return
		}
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) handle(w http.ResponseWriter, r *http.Request, build func() (section, error)) {
	s, err := build()
	if err != nil {
		h.logger.Error("render section", "error", err)
		return
	}
	h.send(w, r, s)
}

func (h *SSEHandlers) HandleCities(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func() (section, error) { return h.citiesSection(h.analytics.Cities()) })
}

func (h *SSEHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func() (section, error) { return h.categoriesSection(h.analytics.Categories()) })
}

func (h *SSEHandlers) HandleCategoryRevenue(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func() (section, error) { return h.revenueSection(h.analytics.CategoryRevenue()) })
}

func (h *SSEHandlers) HandleSellers(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func() (section, error) { return h.sellersSection(h.analytics.Sellers()) })
}

func (h *SSEHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func() (section, error) { return h.rfmSection(h.analytics.RFMReport()) })
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.analytics.AllViews(r.Context())
	if err != nil {
		h.logger.Warn("refresh aborted", "error", err)
		return
	}

	builders := []func() (section, error){
		func() (section, error) { return h.citiesSection(views.Cities, views.CitiesErr) },
		func() (section, error) { return h.categoriesSection(views.Categories, views.CategoriesErr) },
		func() (section, error) { return h.revenueSection(views.CategoryRevenue, views.CategoryRevenueErr) },
		func() (section, error) { return h.sellersSection(views.Sellers, views.SellersErr) },
		func() (section, error) { return h.rfmSection(views.RFM, views.RFMErr) },
	}

	sections := make([]section, 0, len(builders))
	for _, build := range builders {
		s, err := build()
		if err != nil {
			h.logger.Error("render section", "error", err)
			return
		}
		sections = append(sections, s)
	}
	h.send(w, r, sections...)
}
