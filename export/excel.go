package export

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"consultai/store"
)

const (
	AnalysisSheet  = "Analysis"
	BenchmarkSheet = "Benchmarks"
)

var benchmarkHeader = []string{"Firm_Report", "Firm", "Sentiment"}

// WriteWorkbook writes the analysis rows and benchmarks to an xlsx file
// with one sheet each.
func WriteWorkbook(path string, results []store.AnalysisRow, benchmarks []store.Benchmark) error {
	f := excelize.NewFile()
	defer f.Close()

	// rename the default sheet instead of leaving an empty Sheet1
	if err := f.SetSheetName(f.GetSheetName(0), AnalysisSheet); err != nil {
		return errors.Wrap(err, "name analysis sheet")
	}
	if err := writeRow(f, AnalysisSheet, 1, toCells(store.AnalysisHeader)); err != nil {
		return err
	}
	for i, r := range results {
		row := []any{
			r.Report, r.Firm, r.Year, r.Industry, r.ChunkID, r.Text,
			r.ProcessedText, r.TopKeywords, r.Topics, r.VaderSentiment, r.TextBlobSentiment,
		}
		if err := writeRow(f, AnalysisSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(BenchmarkSheet); err != nil {
		return errors.Wrap(err, "create benchmark sheet")
	}
	if err := writeRow(f, BenchmarkSheet, 1, toCells(benchmarkHeader)); err != nil {
		return err
	}
	for i, b := range benchmarks {
		if err := writeRow(f, BenchmarkSheet, i+2, []any{b.FirmReport, b.Firm(), b.Sentiment}); err != nil {
			return err
		}
	}

	for _, sheet := range []string{AnalysisSheet, BenchmarkSheet} {
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return errors.Wrapf(err, "freeze header of %s", sheet)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", path)
	}
	return errors.Wrapf(f.SaveAs(path), "save %s", path)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return errors.Wrapf(f.SetSheetRow(sheet, cell, &values), "write %s row %d", sheet, row)
}

func toCells(header []string) []any {
	out := make([]any, len(header))
	for i, h := range header {
		out[i] = h
	}
	return out
}
