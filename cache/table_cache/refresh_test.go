package table_cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RussellLuo/timingwheel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultai/store"
)

func TestRefreshEveryOnWheel(t *testing.T) {
	tw := timingwheel.NewTimingWheel(10*time.Millisecond, 20)
	tw.Start()
	defer tw.Stop()

	var fired atomic.Int32
	timer := tw.ScheduleFunc(refreshEvery(50*time.Millisecond), func() {
		fired.Add(1)
	})
	defer timer.Stop()

	assert.Eventually(t, func() bool { return fired.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestJitter(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := jitter(time.Minute)
		assert.GreaterOrEqual(t, d, time.Minute-wheelTick)
		assert.Less(t, d, time.Minute+wheelTick)
	}
	assert.Equal(t, wheelTick, jitter(0))
}

func TestBenchmarkCacheRefreshesOnWheel(t *testing.T) {
	repo := initRepo(t)
	mgr := NewTableCacheMgr(repo.DB())
	defer mgr.Close()

	cache, err := NewBenchmarkCache(mgr, 2*time.Second)
	require.NoError(t, err)
	_, version := cache.View()

	require.NoError(t, repo.SaveBenchmarks(context.Background(), []store.Benchmark{{FirmReport: "EY_FPA", Sentiment: 0.5}}))
	assert.Eventually(t, func() bool {
		view, v := cache.View()
		return v > version && len(view.Rows) == 1
	}, 6*time.Second, 100*time.Millisecond)
}
