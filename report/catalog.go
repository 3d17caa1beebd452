package report

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"consultai/utils/config"
)

var ErrInvalidReportName = errors.New("invalid report name, expected Firm_Year_Industry.pdf")

// Meta is what a report file name encodes.
type Meta struct {
	FileName string
	Firm     string
	Year     string
	Industry string
}

// FirmReport is the benchmark label used by the dashboard, e.g. McKinsey_State.
func (m Meta) FirmReport() string {
	return m.Firm + "_" + m.Industry
}

// ParseFileName splits Firm_Year_Industry.pdf. Underscores after the year
// stay part of the industry.
func ParseFileName(name string) (Meta, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return Meta{}, errors.Wrap(ErrInvalidReportName, base)
	}
	for _, p := range parts[:2] {
		if p == "" {
			return Meta{}, errors.Wrap(ErrInvalidReportName, base)
		}
	}
	return Meta{
		FileName: base,
		Firm:     parts[0],
		Year:     parts[1],
		Industry: strings.Join(parts[2:], "_"),
	}, nil
}

// Entry is a downloadable report.
type Entry struct {
	Firm     string
	Year     string
	Industry string
	URL      string
}

func (e Entry) FileName() string {
	return e.Firm + "_" + e.Year + "_" + e.Industry + ".pdf"
}

func EntriesFromConfig(sources []config.ReportSource) []Entry {
	entries := make([]Entry, 0, len(sources))
	for _, s := range sources {
		entries = append(entries, Entry{
			Firm:     s.Firm,
			Year:     s.Year,
			Industry: s.Industry,
			URL:      s.URL,
		})
	}
	return entries
}
