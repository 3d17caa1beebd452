package table_cache

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"consultai/store"
)

// ReportSentiment is the mean benchmark sentiment of one Firm_Report.
type ReportSentiment struct {
	FirmReport string  `json:"firm_report"`
	Sentiment  float64 `json:"sentiment"`
	Count      int     `json:"count"`
}

// BenchmarkView is the published form of the benchmark table.
type BenchmarkView struct {
	Rows     []store.Benchmark `json:"rows"`
	ByReport []ReportSentiment `json:"by_report"`
}

// BenchmarkCache serves the benchmark table from memory, refreshed from the
// database every interval.
type BenchmarkCache struct {
	op *TableCacheOp
}

func NewBenchmarkCache(mgr *TableCacheMgr, interval time.Duration) (*BenchmarkCache, error) {
	op, err := mgr.AcquireCacheOp(TablePullConfig{
		TableName:      store.Benchmark{}.TableName(),
		ModelGen:       func() any { return &[]store.Benchmark{} },
		UpdateInterval: interval,
		Order:          "firm_report",
		ReviseFunc:     reviseBenchmarks,
		IDFunc:         indexBenchmarks,
	})
	if err != nil {
		return nil, errors.Wrap(err, "acquire benchmark cache")
	}
	return &BenchmarkCache{op: op}, nil
}

// View returns the current benchmarks and their version.
func (c *BenchmarkCache) View() (BenchmarkView, int64) {
	data, version := c.op.GetData()
	view, _ := data.(BenchmarkView)
	return view, version
}

// Get looks a benchmark up by its Firm_Report name.
func (c *BenchmarkCache) Get(firmReport string) (store.Benchmark, bool) {
	b, ok := c.op.GetModelByID(firmReport).(store.Benchmark)
	return b, ok
}

func reviseBenchmarks(data any) (any, error) {
	rows, ok := data.(*[]store.Benchmark)
	if !ok {
		return nil, ErrModelGenUnexpectedVar
	}
	return BenchmarkView{Rows: *rows, ByReport: MeanByReport(*rows)}, nil
}

func indexBenchmarks(data any) map[string]any {
	rows, _ := data.(*[]store.Benchmark)
	idx := make(map[string]any)
	if rows == nil {
		return idx
	}
	for _, b := range *rows {
		idx[b.FirmReport] = b
	}
	return idx
}

// MeanByReport averages sentiment per Firm_Report, ordered by name. Each
// report keeps its own bar even when a firm published several.
func MeanByReport(rows []store.Benchmark) []ReportSentiment {
	sums := make(map[string]*ReportSentiment)
	for _, b := range rows {
		rs, ok := sums[b.FirmReport]
		if !ok {
			rs = &ReportSentiment{FirmReport: b.FirmReport}
			sums[b.FirmReport] = rs
		}
		rs.Sentiment += b.Sentiment
		rs.Count++
	}

	out := make([]ReportSentiment, 0, len(sums))
	for _, rs := range sums {
		rs.Sentiment /= float64(rs.Count)
		out = append(out, *rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirmReport < out[j].FirmReport })
	return out
}
