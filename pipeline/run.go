package pipeline

import (
	"context"

	"go.uber.org/zap"

	"consultai/report"
	"consultai/utils/log"
	"consultai/utils/progress_reporter"
)

// Run downloads the catalog and runs every stage under one run lock.
// A nil downloader skips the download stage.
func (p *Pipeline) Run(ctx context.Context, dl *report.Downloader, entries []report.Entry) error {
	return p.locked(ctx, func(ctx context.Context) error {
		reporter := progress_reporter.NewProgressReporter("run")
		reporter.StartRecord()
		defer func() {
			reporter.EndRecord()
			reporter.Report(ctx)
		}()

		if dl != nil {
			_ = reporter.Stage("download", func() error {
				failed := 0
				for _, r := range dl.DownloadAll(ctx, entries) {
					if r.Err != nil {
						failed++
					}
				}
				log.Info(ctx, "downloads finished", zap.Int("total", len(entries)), zap.Int("failed", failed))
				return nil
			})
		}

		if err := reporter.Stage("process", func() error {
			_, err := p.processDir(ctx)
			return err
		}); err != nil {
			return err
		}
		if err := reporter.Stage("sentiment", func() error {
			_, err := p.addSentiment(ctx)
			return err
		}); err != nil {
			return err
		}
		return reporter.Stage("analyze", func() error {
			_, err := p.analyze(ctx)
			return err
		})
	})
}
