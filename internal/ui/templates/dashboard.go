package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.4/dist/chart.umd.min.js"
)

type chart struct {
	ID          string
	Title       string
	Signal      string
	Kind        string
	Explanation string
}

type tab struct {
	ID          string
	Title       string
	Heading     string
	Endpoint    string
	Content     string
	Charts      []chart
	Explanation string
}

// initialSignals declares every chart signal so expressions never see an
// undefined value before the first patch arrives.
const initialSignals = `{tab: 'cities',
 citiesTop: {labels: [], values: []}, citiesBottom: {labels: [], values: []},
 categoriesTop: {labels: [], values: []},
 revenueTop: {labels: [], values: []}, revenueBottom: {labels: [], values: []},
 pareto: {labels: [], orders: [], cumulative: []},
 rfmRecency: {labels: [], counts: [], box: {}},
 rfmFrequency: {labels: [], counts: [], box: {}},
 rfmMonetary: {labels: [], counts: [], box: {}}}`

var tabs = []tab{
	{
		ID:       "cities",
		Title:    "Cities",
		Heading:  "Cities with the most and the fewest orders",
		Endpoint: "/sse/cities",
		Content:  "cities-content",
		Charts: []chart{
			{ID: "chart-cities-top", Title: "5 cities with the most orders", Signal: "citiesTop", Kind: "bar"},
			{ID: "chart-cities-bottom", Title: "5 cities with the fewest orders", Signal: "citiesBottom", Kind: "bar"},
		},
		Explanation: "Cities with the most orders are where online shopping is strongest, usually driven by population, " +
			"access to e-commerce and purchasing power. Cities with the fewest orders may have weaker digital infrastructure " +
			"or a preference for shopping in person. The first group is a large existing market; the second is a target " +
			"for campaigns that grow e-commerce adoption.",
	},
	{
		ID:       "categories",
		Title:    "Categories",
		Heading:  "Most purchased product categories",
		Endpoint: "/sse/categories",
		Content:  "categories-content",
		Charts: []chart{
			{ID: "chart-categories-top", Title: "Top 5 categories by orders", Signal: "categoriesTop", Kind: "bar"},
		},
		Explanation: "The categories with the most orders reflect what customers of the marketplace need most, shaped by " +
			"market trends, preferences and seasonality. Categories with few orders can be an untapped opportunity: low " +
			"exposure or uncompetitive prices often hold them back, and better promotion or pricing can grow them.",
	},
	{
		ID:       "revenue",
		Title:    "Revenue",
		Heading:  "Categories with the largest and smallest revenue",
		Endpoint: "/sse/category-revenue",
		Content:  "revenue-content",
		Charts: []chart{
			{ID: "chart-revenue-top", Title: "Top 5 categories by revenue", Signal: "revenueTop", Kind: "bar"},
			{ID: "chart-revenue-bottom", Title: "Bottom 5 categories by revenue", Signal: "revenueBottom", Kind: "bar"},
		},
		Explanation: "The highest-revenue categories are not always the ones with the most orders, because some products " +
			"sell at a much higher average price. High-volume categories tend to be affordable items bought in bulk. " +
			"Sellers can use this to choose between high volume at small margins and premium products at larger margins.",
	},
	{
		ID:       "sellers",
		Title:    "Sellers",
		Heading:  "Sellers with the most orders (Pareto chart)",
		Endpoint: "/sse/sellers",
		Content:  "sellers-content",
		Charts: []chart{
			{ID: "chart-pareto", Title: "Top 10 sellers", Signal: "pareto", Kind: "pareto"},
		},
		Explanation: "A small share of sellers accounts for most orders, as the Pareto principle suggests. Sellers with " +
			"strong marketing and good service tend to dominate. Smaller sellers can compete by widening their range " +
			"and improving how they market and serve customers.",
	},
	{
		ID:       "rfm",
		Title:    "RFM",
		Heading:  "RFM analysis (Recency, Frequency, Monetary)",
		Endpoint: "/sse/rfm",
		Content:  "rfm-content",
		Charts: []chart{
			{ID: "chart-recency", Title: "Recency distribution (days)", Signal: "rfmRecency", Kind: "histogram",
				Explanation: "Many customers bought recently and are likely to return when offered relevant " +
					"recommendations or special offers. Customers who have not bought for a long time need retention " +
					"work such as reminder emails, exclusive discounts or a loyalty program."},
			{ID: "chart-recency-box", Title: "Recency box plot", Signal: "rfmRecency", Kind: "box"},
			{ID: "chart-frequency", Title: "Frequency distribution (orders)", Signal: "rfmFrequency", Kind: "histogram",
				Explanation: "Most customers order only once, so repeat purchases are the main lever. Frequent buyers " +
					"can be kept with membership perks or reward points, and occasional buyers nudged with discounts " +
					"on their next order."},
			{ID: "chart-frequency-box", Title: "Frequency box plot", Signal: "rfmFrequency", Kind: "box"},
			{ID: "chart-monetary", Title: "Monetary distribution (R$)", Signal: "rfmMonetary", Kind: "histogram",
				Explanation: "Spend varies widely between customers. Large spenders merit premium treatment such as " +
					"priority access to new products, while small spenders can be encouraged with bundles and volume discounts."},
			{ID: "chart-monetary-box", Title: "Monetary box plot", Signal: "rfmMonetary", Kind: "box"},
		},
	},
}

var page = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Olist E-Commerce Dashboard</title>
<script type="module" src="{{.DatastarScript}}"></script>
<script src="{{.ChartScript}}"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#0f172a;color:#e2e8f0}
header{padding:1.5rem 2rem;border-bottom:1px solid #1e293b}
main{padding:1.5rem 2rem}
nav button{background:#1e293b;color:#e2e8f0;border:0;padding:.6rem 1rem;margin-right:.25rem;border-radius:.4rem;cursor:pointer}
nav button.active{background:#0891b2}
.grid-2{display:grid;grid-template-columns:1fr 1fr;gap:1.5rem}
.chart{background:#111827;border-radius:.5rem;padding:1rem}
.modern-table{width:100%;border-collapse:collapse;margin:1rem 0}
.modern-table caption{text-align:left;font-weight:600;padding:.5rem 0}
.modern-table th,.modern-table td{padding:.4rem .6rem;border-bottom:1px solid #1e293b;text-align:left}
.category-badge{background:#164e63;padding:.1rem .5rem;border-radius:.3rem}
.alert-error{background:#7f1d1d;padding:1rem;border-radius:.4rem}
.muted{color:#94a3b8}
details{margin-top:1.5rem;background:#111827;padding:1rem;border-radius:.5rem}
summary{cursor:pointer;font-weight:600}
</style>
</head>
<body data-signals="{{.Signals}}" data-on-load="@get('/sse/refresh-all')">
<header>
<h1>Brazilian E-Commerce Public Dataset by Olist</h1>
</header>
<main>
<nav>
{{range .Tabs}}<button data-on-click="$tab = '{{.ID}}'" data-class-active="$tab == '{{.ID}}'">{{.Title}}</button>
{{end}}</nav>
{{range .Tabs}}<section id="tab-{{.ID}}" data-show="$tab == '{{.ID}}'">
<h2>{{.Heading}}</h2>
<button data-on-click="@get('{{.Endpoint}}')">Refresh</button>
<div class="grid-2">
{{range .Charts}}<div class="chart"><h3>{{.Title}}</h3><canvas id="{{.ID}}" data-effect="drawChart('{{.ID}}', '{{.Kind}}', ${{.Signal}})"></canvas>
{{with .Explanation}}<details>
<summary>Explanation</summary>
<p>{{.}}</p>
</details>{{end}}</div>
{{end}}</div>
<div id="{{.Content}}"><p class="muted">Loading...</p></div>
{{with .Explanation}}<details>
<summary>Explanation</summary>
<p>{{.}}</p>
</details>{{end}}
</section>
{{end}}</main>
<script>
const charts = {};
const palette = '#22d3ee';

function config(kind, data) {
  switch (kind) {
  case 'pareto':
    return {
      data: {
        labels: data.labels,
        datasets: [
          {type: 'bar', label: 'Orders', data: data.orders, backgroundColor: palette, yAxisID: 'y'},
          {type: 'line', label: 'Cumulative %', data: data.cumulative, borderColor: '#f87171', yAxisID: 'pct'},
        ],
      },
      options: {scales: {pct: {position: 'right', min: 0, max: 100}}},
    };
  case 'histogram':
    return {
      type: 'bar',
      data: {labels: data.labels, datasets: [{label: 'Customers', data: data.counts, backgroundColor: palette, barPercentage: 1, categoryPercentage: 1}]},
      options: {plugins: {legend: {display: false}}},
    };
  case 'box': {
    const b = data.box || {};
    return {
      type: 'bar',
      data: {
        labels: [''],
        datasets: [
          {label: 'Whiskers', data: [[b.lower_whisker, b.upper_whisker]], backgroundColor: '#475569', barPercentage: 0.1},
          {label: 'Q1-Q3', data: [[b.q1, b.q3]], backgroundColor: palette, barPercentage: 0.6},
          {label: 'Median', data: [[b.median, b.median]], borderColor: '#f8fafc', borderWidth: 3, barPercentage: 0.6},
        ],
      },
      options: {indexAxis: 'y', scales: {y: {stacked: true}}},
    };
  }
  default:
    return {
      type: 'bar',
      data: {labels: data.labels, datasets: [{data: data.values, backgroundColor: palette}]},
      options: {indexAxis: 'y', plugins: {legend: {display: false}}},
    };
  }
}

function drawChart(id, kind, data) {
  if (!window.Chart || !data) return;
  const cfg = config(kind, JSON.parse(JSON.stringify(data)));
  if (charts[id]) charts[id].destroy();
  charts[id] = new Chart(document.getElementById(id), cfg);
}
</script>
</body>
</html>
`))

type pageData struct {
	DatastarScript string
	ChartScript    string
	Signals        string
	Tabs           []tab
}

// Dashboard renders the page shell. Section bodies and chart data arrive
// over SSE once the page loads.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return page.Execute(w, pageData{
			DatastarScript: datastarScript,
			ChartScript:    chartScript,
			Signals:        initialSignals,
			Tabs:           tabs,
		})
	})
}
