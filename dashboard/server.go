package dashboard

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"consultai/cache/table_cache"
	"consultai/pipeline"
	"consultai/store"
	"consultai/utils/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// BenchmarkSource serves the current benchmark table.
type BenchmarkSource interface {
	View() (table_cache.BenchmarkView, int64)
}

// AnalysisSource lists chunk analyses of a report, or of every report
// when report is "".
type AnalysisSource interface {
	Analyses(ctx context.Context, report string) ([]store.ChunkAnalysis, error)
}

type Server struct {
	pipeline   *pipeline.Pipeline
	benchmarks BenchmarkSource
	analyses   AnalysisSource
	tmpl       *template.Template
	maxUpload  int64
}

type ServerOption func(s *Server)

// WithAnalyses enables the topic and keyword summary of the selected firm.
func WithAnalyses(a AnalysisSource) ServerOption {
	return func(s *Server) {
		s.analyses = a
	}
}

func NewServer(p *pipeline.Pipeline, benchmarks BenchmarkSource, options ...ServerOption) (*Server, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"score": formatScore,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}

	maxMB := p.Config().Dashboard.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 64
	}
	s := &Server{
		pipeline:   p,
		benchmarks: benchmarks,
		tmpl:       tmpl,
		maxUpload:  maxMB << 20,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Get("/charts/benchmark", s.handleBenchmarkChart)
	r.Get("/charts/compare", s.handleCompareChart)
	r.Get("/api/benchmarks", s.handleBenchmarks)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "consultai-dashboard"})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "dashboard listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info(ctx, "dashboard shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info(r.Context(), "http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
