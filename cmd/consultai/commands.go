package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"consultai/cache/table_cache"
	"consultai/dashboard"
	"consultai/export"
	"consultai/mcp/reports"
	"consultai/mcp/tool_group"
	"consultai/report"
	"consultai/sentiment"
	"consultai/store"
	"consultai/utils/config"
	"consultai/utils/log"
)

const version = "0.3.0"

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the configured report catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := report.EntriesFromConfig(cfg.Download.Reports)
		failed := 0
		for _, r := range newDownloader().DownloadAll(cmd.Context(), entries) {
			if r.Err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", r.Entry.FileName(), r.Err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d bytes)\n", r.Entry.FileName(), r.BytesWritten)
		}
		if failed == len(entries) && failed > 0 {
			return fmt.Errorf("all %d downloads failed", failed)
		}
		return nil
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Extract, clean and chunk every report into metadata.csv and cleaned_texts.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		summary, err := a.pipeline.ProcessDir(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range summary.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped %s: %s\n", s.File, s.Reason)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Processed %d reports into %d chunks, saved to %s\n",
			len(summary.Processed), summary.Chunks, cfg.Paths.MetadataCSV())
		return nil
	},
}

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Add a VADER Sentiment column to cleaned_texts.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		rows, err := a.pipeline.AddSentiment(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Fprintf(cmd.OutOrStdout(), "%-30s %7.4f\n", r.FirmReport, r.Sentiment)
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score keywords, topics and sentiment of every chunk into analysis_results.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.pipeline.Analyze(cmd.Context())
		if err != nil {
			return err
		}
		for i, terms := range res.TopicTerms {
			fmt.Fprintf(cmd.OutOrStdout(), "Topic %d: %v\n", i, terms)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Analysis complete. Results saved to %s\n", cfg.Paths.AnalysisCSV())
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [workbook.xlsx]",
	Short: "Write analysis results and benchmarks to an xlsx workbook",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		path := cfg.Paths.Workbook
		if len(args) == 1 {
			path = args[0]
		}
		results, err := store.ReadAnalysis(cfg.Paths.AnalysisCSV())
		if err != nil {
			return err
		}
		benchmarks, err := a.repo.Benchmarks(cmd.Context())
		if err != nil {
			return err
		}
		if err := export.WriteWorkbook(path, results, benchmarks); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(results), path)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the benchmark dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		// pick up log level and label threshold changes without a restart
		loader, err := config.NewConfigLoader(configPath)
		if err != nil {
			log.Warn(ctx, "config hot reload disabled", zap.Error(err))
		} else {
			defer loader.Close()
			loader.Subscribe(func(c config.Config) {
				if logLevel != "" {
					c.Log.Level = logLevel
				}
				log.Init(c.Log)
				a.pipeline.SetThresholds(sentiment.Thresholds{
					Positive: c.Sentiment.PositiveThreshold,
					Negative: c.Sentiment.NegativeThreshold,
				})
				log.Info(ctx, "config reloaded", zap.Int64("version", loader.Version()))
			})
		}

		mgr := table_cache.NewTableCacheMgr(a.repo.DB())
		defer mgr.Close()
		benchmarks, err := table_cache.NewBenchmarkCache(mgr, cfg.Dashboard.RefreshInterval)
		if err != nil {
			return err
		}

		srv, err := dashboard.NewServer(a.pipeline, benchmarks, dashboard.WithAnalyses(a.repo))
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx, cfg.Dashboard.Addr)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the report tools over MCP (SSE)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		tools := &reports.Tools{Pipeline: a.pipeline, Repo: a.repo, Chunks: a.chunks}
		ms := tool_group.NewMCPServer("consultai", version)
		ms.AddToolGroup(tools.ToolGroup())
		return ms.Run(cmd.Context(), cfg.MCP.BaseURL, cfg.MCP.Addr, "", "")
	},
}

var skipDownload bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Download, process, score and analyze in one locked run",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		var dl *report.Downloader
		if !skipDownload {
			dl = newDownloader()
		}
		return a.pipeline.Run(cmd.Context(), dl, report.EntriesFromConfig(cfg.Download.Reports))
	},
}

func init() {
	runCmd.Flags().BoolVar(&skipDownload, "skip-download", false, "Use the reports already in the report directory")
}
