package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"consultai/pdftext"
	"consultai/report"
	"consultai/store"
	"consultai/textproc"
	"consultai/utils/log"
	"consultai/utils/progress_reporter"
)

// Skipped is a report file left out of a run and why.
type Skipped struct {
	File   string
	Reason string
}

type ProcessSummary struct {
	Processed []string
	Skipped   []Skipped
	Chunks    int
}

// ProcessDir extracts, cleans and chunks every report in the report
// directory, then writes metadata.csv and cleaned_texts.csv.
func (p *Pipeline) ProcessDir(ctx context.Context) (ProcessSummary, error) {
	var summary ProcessSummary
	err := p.locked(ctx, func(ctx context.Context) error {
		var err error
		summary, err = p.processDir(ctx)
		return err
	})
	return summary, err
}

type processedReport struct {
	meta    report.Meta
	doc     pdftext.Document
	info    pdftext.Info
	rows    []store.ChunkRow
	cleaned string
}

func (p *Pipeline) processDir(ctx context.Context) (ProcessSummary, error) {
	var summary ProcessSummary
	reporter := progress_reporter.NewProgressReporter("process")
	reporter.StartRecord()
	defer func() {
		reporter.EndRecord()
		reporter.Report(ctx)
	}()

	files, err := listPDFs(p.cfg.Paths.ReportDir)
	if err != nil {
		return summary, err
	}

	var reports []processedReport
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		pr, err := p.processFile(ctx, reporter, path)
		if err != nil {
			log.Warn(ctx, "skipping report", zap.String("file", filepath.Base(path)), zap.Error(err))
			summary.Skipped = append(summary.Skipped, Skipped{File: filepath.Base(path), Reason: err.Error()})
			continue
		}
		log.Info(ctx, "processed report",
			zap.String("file", pr.meta.FileName),
			zap.Int("pages", pr.doc.PageCount),
			zap.Int("chunks", len(pr.rows)),
			zap.Bool("decrypted", pr.doc.Decrypted))
		reports = append(reports, pr)
	}
	if len(reports) == 0 {
		return summary, ErrNoValidPDFs
	}

	var metadata []store.ChunkRow
	cleaned := make([]store.CleanedRow, 0, len(reports))
	for _, pr := range reports {
		metadata = append(metadata, pr.rows...)
		cleaned = append(cleaned, store.CleanedRow{FirmReport: pr.meta.FirmReport(), Text: pr.cleaned})
		summary.Processed = append(summary.Processed, pr.meta.FileName)
	}
	summary.Chunks = len(metadata)

	err = reporter.Stage("write", func() error {
		if err := store.WriteMetadata(p.cfg.Paths.MetadataCSV(), metadata); err != nil {
			return err
		}
		return store.WriteCleaned(p.cfg.Paths.CleanedTexts, cleaned)
	})
	if err != nil {
		return summary, err
	}

	if p.repo != nil {
		err = reporter.Stage("persist", func() error {
			for _, pr := range reports {
				if err := p.repo.SaveReport(ctx, reportModel(pr), chunkModels(pr.rows)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return summary, err
		}
	}

	log.Info(ctx, "processing complete",
		zap.Int("reports", len(summary.Processed)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("chunks", summary.Chunks),
		zap.String("metadata", p.cfg.Paths.MetadataCSV()))
	return summary, nil
}

func (p *Pipeline) processFile(ctx context.Context, reporter *progress_reporter.ProgressReporter, path string) (processedReport, error) {
	var pr processedReport
	meta, err := report.ParseFileName(path)
	if err != nil {
		return pr, err
	}
	pr.meta = meta

	data, err := os.ReadFile(path)
	if err != nil {
		return pr, errors.Wrapf(err, "read %s", path)
	}
	if !pdftext.IsPDFBytes(data) {
		return pr, pdftext.ErrNotPDF
	}

	err = reporter.Stage("extract", func() error {
		var xerr error
		pr.doc, xerr = pdftext.ExtractBytes(data)
		return xerr
	})
	if err != nil {
		return pr, err
	}
	if info, err := pdftext.ReadInfo(data); err == nil {
		pr.info = info
	} else {
		log.Debug(ctx, "no pdf metadata", zap.String("file", meta.FileName), zap.Error(err))
	}

	text := pr.doc.Text()
	_ = reporter.Stage("chunk", func() error {
		chunks := textproc.Chunk(textproc.CleanForChunking(text), p.cfg.Chunk.MaxWords)
		pr.rows = make([]store.ChunkRow, 0, len(chunks))
		for i, c := range chunks {
			pr.rows = append(pr.rows, store.ChunkRow{
				Report:   meta.FileName,
				Firm:     meta.Firm,
				Year:     meta.Year,
				Industry: meta.Industry,
				ChunkID:  i,
				Text:     c,
			})
		}
		return nil
	})
	if len(pr.rows) == 0 {
		return pr, pdftext.ErrNoText
	}

	_ = reporter.Stage("clean", func() error {
		pr.cleaned = textproc.CleanForSentiment(text)
		return nil
	})

	if p.chunks != nil {
		err = reporter.Stage("cache", func() error {
			return p.chunks.PutReport(meta.FileName, pr.rows)
		})
		if err != nil {
			// the cache only speeds up later reads
			log.Warn(ctx, "cache chunks", zap.String("file", meta.FileName), zap.Error(err))
		}
	}
	return pr, nil
}

// listPDFs returns the *.pdf files of dir, sorted, once per name regardless
// of extension case.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}

	seen := make(map[string]struct{})
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		key := strings.ToLower(e.Name())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func reportModel(pr processedReport) store.Report {
	return store.Report{
		Name:      pr.meta.FileName,
		Firm:      pr.meta.Firm,
		Year:      pr.meta.Year,
		Industry:  pr.meta.Industry,
		Title:     pr.info.Title,
		Author:    pr.info.Author,
		Pages:     pr.doc.PageCount,
		Decrypted: pr.doc.Decrypted,
	}
}

func chunkModels(rows []store.ChunkRow) []store.Chunk {
	chunks := make([]store.Chunk, 0, len(rows))
	for _, r := range rows {
		chunks = append(chunks, store.Chunk{
			ReportName: r.Report,
			ChunkID:    r.ChunkID,
			Words:      textproc.WordCount(r.Text),
			Text:       r.Text,
		})
	}
	return chunks
}
