package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"

	"consultai/cache/chunk_cache"
	"consultai/cache/score_cache"
	"consultai/distributed/redis_lock"
	"consultai/sentiment"
	"consultai/store"
	"consultai/utils/config"
)

const runLockName = "pipeline"

var ErrNoValidPDFs = errors.New("no valid PDFs processed")

// Pipeline wires the processing stages to their storage. Every dependency
// except the config is optional.
type Pipeline struct {
	cfg      config.Config
	analyzer *sentiment.Analyzer
	repo     *store.Repo
	chunks   *chunk_cache.Cache
	scores   *score_cache.Cache
	locks    *redis_lock.LockFac

	// label thresholds, swapped on config reload
	thr atomic.Pointer[sentiment.Thresholds]
}

type Option func(p *Pipeline)

func WithRepo(repo *store.Repo) Option {
	return func(p *Pipeline) {
		p.repo = repo
	}
}

func WithChunkCache(c *chunk_cache.Cache) Option {
	return func(p *Pipeline) {
		p.chunks = c
	}
}

func WithScoreCache(c *score_cache.Cache) Option {
	return func(p *Pipeline) {
		p.scores = c
	}
}

// WithLockFac guards the CSV-writing stages with a redis run lock.
func WithLockFac(fac *redis_lock.LockFac) Option {
	return func(p *Pipeline) {
		p.locks = fac
	}
}

func WithAnalyzer(a *sentiment.Analyzer) Option {
	return func(p *Pipeline) {
		p.analyzer = a
	}
}

func New(cfg config.Config, options ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg}
	for _, option := range options {
		option(p)
	}
	if p.analyzer == nil {
		p.analyzer = sentiment.NewAnalyzer()
	}
	p.SetThresholds(sentiment.Thresholds{
		Positive: cfg.Sentiment.PositiveThreshold,
		Negative: cfg.Sentiment.NegativeThreshold,
	})
	return p
}

func (p *Pipeline) Config() config.Config {
	return p.cfg
}

func (p *Pipeline) Analyzer() *sentiment.Analyzer {
	return p.analyzer
}

// SetThresholds replaces the labelling thresholds. Safe for concurrent use.
func (p *Pipeline) SetThresholds(t sentiment.Thresholds) {
	p.thr.Store(&t)
}

func (p *Pipeline) thresholds() sentiment.Thresholds {
	return *p.thr.Load()
}

// Label buckets a compound score with the configured thresholds.
func (p *Pipeline) Label(compound float64) string {
	return sentiment.Label(compound, p.thresholds())
}

// Legend is the threshold hint shown beside scores.
func (p *Pipeline) Legend() string {
	return p.thresholds().Legend()
}

func (p *Pipeline) locked(ctx context.Context, fn func(ctx context.Context) error) error {
	return redis_lock.RunLock(ctx, p.locks, runLockName, fn)
}
