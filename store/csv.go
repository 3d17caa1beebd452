package store

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

var (
	MetadataHeader = []string{"report", "firm", "year", "industry", "chunk_id", "text"}
	AnalysisHeader = append(append([]string{}, MetadataHeader...),
		"processed_text", "top_keywords", "topics", "vader_sentiment", "textblob_sentiment")
	CleanedHeader          = []string{"Firm_Report", "Text"}
	CleanedSentimentHeader = []string{"Firm_Report", "Text", "Sentiment"}

	ErrHeaderMismatch = errors.New("csv header mismatch")
)

// ChunkRow is one row of metadata.csv.
type ChunkRow struct {
	Report   string
	Firm     string
	Year     string
	Industry string
	ChunkID  int
	Text     string
}

func (r ChunkRow) record() []string {
	return []string{r.Report, r.Firm, r.Year, r.Industry, strconv.Itoa(r.ChunkID), r.Text}
}

// AnalysisRow is one row of analysis_results.csv.
type AnalysisRow struct {
	ChunkRow
	ProcessedText     string
	TopKeywords       string
	Topics            string
	VaderSentiment    float64
	TextBlobSentiment float64
}

func (r AnalysisRow) record() []string {
	return append(r.ChunkRow.record(),
		r.ProcessedText, r.TopKeywords, r.Topics,
		formatFloat(r.VaderSentiment), formatFloat(r.TextBlobSentiment))
}

// CleanedRow is one row of cleaned_texts.csv. HasSentiment is set once the
// Sentiment column has been computed.
type CleanedRow struct {
	FirmReport   string
	Text         string
	Sentiment    float64
	HasSentiment bool
}

func WriteMetadata(path string, rows []ChunkRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return writeCSV(path, MetadataHeader, records)
}

func ReadMetadata(path string) ([]ChunkRow, error) {
	records, err := readCSV(path, MetadataHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]ChunkRow, 0, len(records))
	for i, rec := range records {
		row, err := parseChunkRow(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, i+2)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func WriteAnalysis(path string, rows []AnalysisRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return writeCSV(path, AnalysisHeader, records)
}

func ReadAnalysis(path string) ([]AnalysisRow, error) {
	records, err := readCSV(path, AnalysisHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]AnalysisRow, 0, len(records))
	for i, rec := range records {
		chunk, err := parseChunkRow(rec[:len(MetadataHeader)])
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, i+2)
		}
		rest := rec[len(MetadataHeader):]
		vader, err := strconv.ParseFloat(rest[3], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d: vader_sentiment", path, i+2)
		}
		blob, err := strconv.ParseFloat(rest[4], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d: textblob_sentiment", path, i+2)
		}
		rows = append(rows, AnalysisRow{
			ChunkRow:          chunk,
			ProcessedText:     rest[0],
			TopKeywords:       rest[1],
			Topics:            rest[2],
			VaderSentiment:    vader,
			TextBlobSentiment: blob,
		})
	}
	return rows, nil
}

// WriteCleaned writes the Sentiment column only when every row has one.
func WriteCleaned(path string, rows []CleanedRow) error {
	withSentiment := len(rows) > 0
	for _, r := range rows {
		withSentiment = withSentiment && r.HasSentiment
	}

	header := CleanedHeader
	if withSentiment {
		header = CleanedSentimentHeader
	}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := []string{r.FirmReport, r.Text}
		if withSentiment {
			rec = append(rec, formatFloat(r.Sentiment))
		}
		records = append(records, rec)
	}
	return writeCSV(path, header, records)
}

// ReadCleaned accepts the file with or without the Sentiment column.
func ReadCleaned(path string) ([]CleanedRow, error) {
	header, records, err := readAll(path)
	if err != nil {
		return nil, err
	}

	withSentiment := equalHeader(header, CleanedSentimentHeader)
	if !withSentiment && !equalHeader(header, CleanedHeader) {
		return nil, errors.Wrapf(ErrHeaderMismatch, "%s: %v", path, header)
	}

	rows := make([]CleanedRow, 0, len(records))
	for i, rec := range records {
		row := CleanedRow{FirmReport: rec[0], Text: rec[1]}
		if withSentiment {
			row.Sentiment, err = strconv.ParseFloat(rec[2], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s line %d: Sentiment", path, i+2)
			}
			row.HasSentiment = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseChunkRow(rec []string) (ChunkRow, error) {
	id, err := strconv.Atoi(rec[4])
	if err != nil {
		return ChunkRow{}, errors.Wrap(err, "chunk_id")
	}
	return ChunkRow{
		Report:   rec[0],
		Firm:     rec[1],
		Year:     rec[2],
		Industry: rec[3],
		ChunkID:  id,
		Text:     rec[5],
	}, nil
}

func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", path)
	}

	// write to a temp file first so readers never see a partial file
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, path), "rename %s", tmp)
}

func readCSV(path string, header []string) ([][]string, error) {
	got, records, err := readAll(path)
	if err != nil {
		return nil, err
	}
	if !equalHeader(got, header) {
		return nil, errors.Wrapf(ErrHeaderMismatch, "%s: %v", path, got)
	}
	return records, nil
}

func readAll(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, errors.Wrapf(ErrHeaderMismatch, "%s: empty file", path)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}
	return header, records, nil
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
