package dashboard

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"consultai/cache/table_cache"
	"consultai/store"
)

const newReportLabel = "New"

// benchmarkChart draws one bar per Firm_Report.
func benchmarkChart(reports []table_cache.ReportSentiment) *charts.Bar {
	names := make([]string, 0, len(reports))
	items := make([]opts.BarData, 0, len(reports))
	for _, r := range reports {
		names = append(names, r.FirmReport)
		items = append(items, opts.BarData{Value: r.Sentiment})
	}

	bar := newBar("Sentiment Across Firms")
	bar.SetXAxis(names).AddSeries("Mean sentiment", items)
	return bar
}

// compareChart plots every benchmark report next to the uploaded one.
func compareChart(benchmarks []store.Benchmark, sent float64) *charts.Bar {
	names := make([]string, 0, len(benchmarks)+1)
	items := make([]opts.BarData, 0, len(benchmarks)+1)
	for _, b := range benchmarks {
		names = append(names, b.FirmReport)
		items = append(items, opts.BarData{Value: b.Sentiment})
	}
	names = append(names, newReportLabel)
	items = append(items, opts.BarData{Value: sent})

	bar := newBar("Your Report vs Benchmarks")
	bar.SetXAxis(names).AddSeries("Sentiment", items)
	return bar
}

func newBar(title string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Sentiment Score"}),
	)
	return bar
}
