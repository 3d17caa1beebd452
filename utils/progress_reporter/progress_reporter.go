package progress_reporter

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"consultai/utils/log"
)

// ProgressReporter records the wall time of a run and of its named stages
// (extract, chunk, tfidf, ...).
type ProgressReporter struct {
	mu                 sync.Mutex
	name               string
	startTime, endTime time.Time
	totalDuration      time.Duration
	ks                 map[string]*keyStage
}

func NewProgressReporter(name string) *ProgressReporter {
	return &ProgressReporter{
		name: name,
		ks:   make(map[string]*keyStage),
	}
}

func (p *ProgressReporter) StartRecord() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startTime = time.Now()
}

func (p *ProgressReporter) EndRecord() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endTime = time.Now()
	p.totalDuration = p.endTime.Sub(p.startTime)
}

func (p *ProgressReporter) StartKeyStageRecord(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.ks[name]; !ok {
		p.ks[name] = &keyStage{
			name:        name,
			minDuration: time.Duration(1<<63 - 1),
		}
	}

	p.ks[name].startTime = time.Now()
}

func (p *ProgressReporter) EndKeyStageRecord(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ks, ok := p.ks[name]
	if !ok {
		return
	}
	ks.endTime = time.Now()
	currentDuration := ks.endTime.Sub(ks.startTime)
	ks.totalDuration += currentDuration
	ks.count++

	if currentDuration > ks.maxDuration {
		ks.maxDuration = currentDuration
	}
	if currentDuration < ks.minDuration {
		ks.minDuration = currentDuration
	}
}

// Stage times fn under the given stage name.
func (p *ProgressReporter) Stage(name string, fn func() error) error {
	p.StartKeyStageRecord(name)
	defer p.EndKeyStageRecord(name)
	return fn()
}

// StageStats is a snapshot of one stage.
type StageStats struct {
	Name  string
	Count int
	Total time.Duration
	Max   time.Duration
	Min   time.Duration
}

// Stages returns the recorded stages sorted by name.
func (p *ProgressReporter) Stages() []StageStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]StageStats, 0, len(p.ks))
	for _, v := range p.ks {
		if v.count == 0 {
			continue
		}
		out = append(out, StageStats{
			Name:  v.name,
			Count: v.count,
			Total: v.totalDuration,
			Max:   v.maxDuration,
			Min:   v.minDuration,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *ProgressReporter) TotalDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalDuration
}

// Report logs the total duration and one line per stage.
func (p *ProgressReporter) Report(ctx context.Context) {
	log.Info(ctx, "run finished", zap.String("run", p.name), zap.Duration("total", p.TotalDuration()))

	for _, s := range p.Stages() {
		log.Info(ctx, "stage timing",
			zap.String("run", p.name),
			zap.String("stage", s.Name),
			zap.Int("count", s.Count),
			zap.Duration("total", s.Total),
			zap.Duration("max", s.Max),
			zap.Duration("min", s.Min),
		)
	}
}

type keyStage struct {
	name                     string
	totalDuration            time.Duration
	count                    int
	maxDuration, minDuration time.Duration
	startTime, endTime       time.Time
}
