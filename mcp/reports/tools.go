package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"consultai/analysis"
	"consultai/cache/chunk_cache"
	"consultai/export"
	"consultai/mcp/tool_group"
	"consultai/pipeline"
	"consultai/sentiment"
	"consultai/store"
	"consultai/textproc"
)

const (
	defaultSearchLimit = 10
	keywordCount       = 5
)

// Tools exposes the processed reports to MCP clients. Repo and Chunks may be
// nil, in which case the tools that need them report an error.
type Tools struct {
	Pipeline *pipeline.Pipeline
	Repo     *store.Repo
	Chunks   *chunk_cache.Cache
}

func (t *Tools) ToolGroup() tool_group.ToolGroup {
	return tool_group.ToolGroup{
		Name: "Report Tools",
		Items: []tool_group.MCPToolItem{
			t.listReportsTool(),
			t.reportSentimentTool(),
			t.analyzeTextTool(),
			t.searchChunksTool(),
			t.exportResultsTool(),
		},
	}
}

func (t *Tools) listReportsTool() tool_group.MCPToolItem {
	return tool_group.MCPToolItem{
		Tool: mcp.NewTool("list_reports",
			mcp.WithDescription("List the processed consulting reports with firm, year, industry, pages and chunk count"),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if t.Repo == nil {
				return mcp.NewToolResultError("report database is not configured"), nil
			}
			reports, err := t.Repo.Reports(ctx)
			if err != nil {
				return nil, err
			}

			type item struct {
				Name     string `json:"name"`
				Firm     string `json:"firm"`
				Year     string `json:"year"`
				Industry string `json:"industry"`
				Title    string `json:"title,omitempty"`
				Pages    int    `json:"pages"`
				Chunks   int    `json:"chunks"`
			}
			out := make([]item, 0, len(reports))
			for _, r := range reports {
				out = append(out, item{r.Name, r.Firm, r.Year, r.Industry, r.Title, r.Pages, r.Chunks})
			}
			return jsonResult(out)
		},
	}
}

func (t *Tools) reportSentimentTool() tool_group.MCPToolItem {
	return tool_group.MCPToolItem{
		Tool: mcp.NewTool("report_sentiment",
			mcp.WithDescription("Benchmark sentiment of one report (Firm_Industry, e.g. McKinsey_State) or of all reports"),
			mcp.WithString("firm_report", mcp.Description("Firm_Industry name; empty lists every benchmark")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if t.Repo == nil {
				return mcp.NewToolResultError("report database is not configured"), nil
			}
			type item struct {
				FirmReport string  `json:"firm_report"`
				Sentiment  float64 `json:"sentiment"`
				Label      string  `json:"label"`
			}
			toItem := func(b store.Benchmark) item {
				return item{b.FirmReport, b.Sentiment, t.Pipeline.Label(b.Sentiment)}
			}

			if name := stringArg(req, "firm_report"); name != "" {
				b, err := t.Repo.Benchmark(ctx, name)
				if errors.Is(err, store.ErrReportNotFound) {
					return mcp.NewToolResultError(fmt.Sprintf("no benchmark named %q", name)), nil
				}
				if err != nil {
					return nil, err
				}
				return jsonResult([]item{toItem(b)})
			}

			benchmarks, err := t.Repo.Benchmarks(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]item, 0, len(benchmarks))
			for _, b := range benchmarks {
				out = append(out, toItem(b))
			}
			return jsonResult(out)
		},
	}
}

func (t *Tools) analyzeTextTool() tool_group.MCPToolItem {
	return tool_group.MCPToolItem{
		Tool: mcp.NewTool("analyze_text",
			mcp.WithDescription("Score free text: VADER scores, pattern polarity, sentiment label and top keywords"),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to analyze")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text := stringArg(req, "text")
			if text == "" {
				return mcp.NewToolResultError("text is required"), nil
			}

			scores := t.Pipeline.Analyzer().PolarityScores(text)
			keywords, err := analysis.FrequentTerms(textproc.Preprocess(text), keywordCount)
			if err != nil && !errors.Is(err, analysis.ErrEmptyCorpus) {
				return nil, err
			}
			return jsonResult(map[string]any{
				"vader":    scores,
				"polarity": sentiment.Polarity(text),
				"label":    t.Pipeline.Label(scores.Compound),
				"keywords": keywords,
			})
		},
	}
}

func (t *Tools) searchChunksTool() tool_group.MCPToolItem {
	return tool_group.MCPToolItem{
		Tool: mcp.NewTool("search_chunks",
			mcp.WithDescription("Case-insensitive substring search over the cached report chunks"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
			mcp.WithNumber("offset", mcp.Description("Number of matches to skip")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of matches, default 10")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if t.Chunks == nil {
				return mcp.NewToolResultError("chunk cache is not configured"), nil
			}
			query := stringArg(req, "query")
			if query == "" {
				return mcp.NewToolResultError("query is required"), nil
			}
			limit := intArg(req, "limit", defaultSearchLimit)
			rows, err := t.Chunks.Search(query, intArg(req, "offset", 0), limit)
			if err != nil {
				return nil, err
			}

			type item struct {
				Report  string `json:"report"`
				ChunkID int    `json:"chunk_id"`
				Text    string `json:"text"`
			}
			out := make([]item, 0, len(rows))
			for _, r := range rows {
				out = append(out, item{r.Report, r.ChunkID, r.Text})
			}
			return jsonResult(out)
		},
	}
}

func (t *Tools) exportResultsTool() tool_group.MCPToolItem {
	return tool_group.MCPToolItem{
		Tool: mcp.NewTool("export_results",
			mcp.WithDescription("Write analysis_results.csv and the benchmarks to an xlsx workbook"),
			mcp.WithString("filename", mcp.Description("Workbook name inside the processed directory; default is the configured workbook")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cfg := t.Pipeline.Config()
			path := cfg.Paths.Workbook
			if name := stringArg(req, "filename"); name != "" {
				// only a bare file name, never a path
				path = filepath.Join(cfg.Paths.ProcessedDir, filepath.Base(name))
			}

			results, err := store.ReadAnalysis(cfg.Paths.AnalysisCSV())
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("no analysis results: %v", err)), nil
			}
			var benchmarks []store.Benchmark
			if t.Repo != nil {
				if benchmarks, err = t.Repo.Benchmarks(ctx); err != nil {
					return nil, err
				}
			}
			if err := export.WriteWorkbook(path, results, benchmarks); err != nil {
				return nil, err
			}
			return mcp.NewToolResultText(fmt.Sprintf("Exported %d rows and %d benchmarks to %s", len(results), len(benchmarks), path)), nil
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func stringArg(req mcp.CallToolRequest, name string) string {
	s, _ := req.Params.Arguments[name].(string)
	return s
}

// intArg reads a JSON number argument; MCP clients send numbers as float64.
func intArg(req mcp.CallToolRequest, name string, def int) int {
	switch v := req.Params.Arguments[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
