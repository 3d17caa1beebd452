package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"consultai/cache/table_cache"
	"consultai/pipeline"
	"consultai/report"
	"consultai/store"
	"consultai/utils/log"
)

const summaryKeywords = 10

type topicCount struct {
	Topic  string
	Chunks int
}

type pageData struct {
	Benchmarks []store.Benchmark
	ByReport   []table_cache.ReportSentiment
	Version    int64

	Selected          string
	SelectedSentiment float64
	HasSelected       bool
	Topics            []topicCount
	Keywords          []string

	Upload      *pipeline.UploadResult
	UploadError string
	Legend      string
}

func (s *Server) basePage(r *http.Request) pageData {
	view, version := s.benchmarks.View()
	data := pageData{
		Benchmarks: view.Rows,
		ByReport:   view.ByReport,
		Version:    version,
		Legend:     s.pipeline.Legend(),
	}

	selected := r.URL.Query().Get("firm")
	if selected == "" && len(view.Rows) > 0 {
		selected = view.Rows[0].FirmReport
	}
	for _, b := range view.Rows {
		if b.FirmReport == selected {
			data.Selected = selected
			data.SelectedSentiment = b.Sentiment
			data.HasSelected = true
			break
		}
	}
	if data.HasSelected {
		data.Topics, data.Keywords = s.summary(r, selected)
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, s.basePage(r))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data := s.basePage(r)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		data.UploadError = "Error reading PDF: " + err.Error()
		s.render(w, r, http.StatusBadRequest, data)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		data.UploadError = "Error reading PDF: only .pdf files are accepted"
		s.render(w, r, http.StatusBadRequest, data)
		return
	}

	res, err := s.pipeline.ScoreUpload(r.Context(), header.Filename, file)
	if err != nil {
		log.Warn(r.Context(), "upload rejected", zap.String("name", header.Filename), zap.Error(err))
		data.UploadError = "Error reading PDF: " + err.Error()
		s.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}
	data.Upload = &res
	s.render(w, r, http.StatusOK, data)
}

func (s *Server) handleBenchmarkChart(w http.ResponseWriter, r *http.Request) {
	view, _ := s.benchmarks.View()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := benchmarkChart(view.ByReport).Render(w); err != nil {
		log.Error(r.Context(), "render benchmark chart", zap.Error(err))
	}
}

func (s *Server) handleCompareChart(w http.ResponseWriter, r *http.Request) {
	sent, err := strconv.ParseFloat(r.URL.Query().Get("sent"), 64)
	if err != nil || sent < -1 || sent > 1 {
		http.Error(w, "sent must be a number in [-1, 1]", http.StatusBadRequest)
		return
	}
	view, _ := s.benchmarks.View()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := compareChart(view.Rows, sent).Render(w); err != nil {
		log.Error(r.Context(), "render compare chart", zap.Error(err))
	}
}

func (s *Server) handleBenchmarks(w http.ResponseWriter, _ *http.Request) {
	view, version := s.benchmarks.View()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    version,
		"benchmarks": view.Rows,
		"by_report":  view.ByReport,
	})
}

// summary counts topics and keywords over the chunks of the selected report.
func (s *Server) summary(r *http.Request, firmReport string) ([]topicCount, []string) {
	if s.analyses == nil {
		return nil, nil
	}
	all, err := s.analyses.Analyses(r.Context(), "")
	if err != nil {
		log.Warn(r.Context(), "load analyses", zap.Error(err))
		return nil, nil
	}

	topics := make(map[string]int)
	keywords := make(map[string]int)
	for _, a := range all {
		meta, err := report.ParseFileName(a.ReportName)
		if err != nil || meta.FirmReport() != firmReport {
			continue
		}
		for _, t := range splitNonEmpty(a.Topics) {
			topics[t]++
		}
		for _, k := range splitNonEmpty(a.TopKeywords) {
			keywords[k]++
		}
	}

	tc := make([]topicCount, 0, len(topics))
	for t, n := range topics {
		tc = append(tc, topicCount{Topic: t, Chunks: n})
	}
	sort.Slice(tc, func(i, j int) bool { return tc[i].Topic < tc[j].Topic })

	kws := make([]string, 0, len(keywords))
	for k := range keywords {
		kws = append(kws, k)
	}
	sort.Slice(kws, func(i, j int) bool {
		if keywords[kws[i]] != keywords[kws[j]] {
			return keywords[kws[i]] > keywords[kws[j]]
		}
		return kws[i] < kws[j]
	})
	if len(kws) > summaryKeywords {
		kws = kws[:summaryKeywords]
	}
	return tc, kws
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Error(r.Context(), "render page", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
