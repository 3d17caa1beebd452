package redis_lock

import (
	"sync"
	"time"

	"github.com/RussellLuo/timingwheel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"consultai/utils/retry"
)

const keyPrefix = "consultai:lock:"

var (
	defaultRetryOption = retry.RetryOptions{
		MaxRetries:     5,
		InitialBackoff: time.Millisecond * 100,
		MaxBackoff:     time.Second * 5,
	}
	defaultTTL = time.Second * 30
)

type FacOption func(f *LockFac)

// LockFac creates locks sharing one client and one renewal wheel.
type LockFac struct {
	client       *redis.Client
	ttl          time.Duration
	tw           *timingwheel.TimingWheel
	retryOptions retry.RetryOptions
	closeOnce    sync.Once
}

func WithTTL(ttl time.Duration) FacOption {
	return func(f *LockFac) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithRetryOptions sets Lock's backoff. At least one attempt is made.
func WithRetryOptions(options retry.RetryOptions) FacOption {
	return func(f *LockFac) {
		options.MaxRetries = max(options.MaxRetries, 1)
		f.retryOptions = options
	}
}

func NewLockFac(client *redis.Client, options ...FacOption) *LockFac {
	fac := &LockFac{
		client:       client,
		retryOptions: defaultRetryOption,
		ttl:          defaultTTL,
	}

	// apply options
	for _, option := range options {
		option(fac)
	}

	// the wheel ticks at a tenth of the renew interval
	tick := genRenewScanInterval(fac.ttl) / 10
	if tick < time.Millisecond {
		tick = time.Millisecond
	}
	fac.tw = timingwheel.NewTimingWheel(tick, 64)
	fac.tw.Start()

	return fac
}

func (f *LockFac) NewLock(name string) *RedisLock {
	return &RedisLock{
		fac:   f,
		key:   keyPrefix + name,
		value: uuid.NewString(),
		ttl:   f.ttl,
	}
}

// Close stops the renewal wheel. Locks still held expire after their TTL.
func (f *LockFac) Close() {
	f.closeOnce.Do(f.tw.Stop)
}

func (f *LockFac) addToRenewWheel(l *RedisLock) *timingwheel.Timer {
	return f.tw.ScheduleFunc(renewEvery(genRenewScanInterval(l.ttl)), func() {
		l.doRenew()
	})
}

// genRenewScanInterval is half of the lock's TTL.
func genRenewScanInterval(ttl time.Duration) time.Duration {
	return ttl / 2
}

// renewEvery fires at a fixed period on the wheel.
type renewEvery time.Duration

func (r renewEvery) Next(prev time.Time) time.Time {
	return prev.Add(time.Duration(r))
}
