package redis_lock

import (
	"context"
	"sync"
	"time"

	"github.com/RussellLuo/timingwheel"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"consultai/utils/log"
	"consultai/utils/retry"
)

const (
	delLuaScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
	`
	renewLuaScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
	`
)

var (
	ErrLockHeld    = errors.New("lock is held by another owner")
	ErrLockNotHeld = errors.New("lock is not held")
)

type RedisLock struct {
	fac        *LockFac
	ttl        time.Duration
	key, value string

	mu    sync.Mutex
	timer *timingwheel.Timer
	held  bool
}

// TryLock makes a single SET NX attempt.
func (l *RedisLock) TryLock(ctx context.Context) error {
	ok, err := l.fac.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return errors.Wrapf(err, "lock %s", l.key)
	}
	if !ok {
		return errors.Wrap(ErrLockHeld, l.key)
	}

	// keep the lock alive while it is held
	l.mu.Lock()
	l.held = true
	l.timer = l.fac.addToRenewWheel(l)
	l.mu.Unlock()
	return nil
}

// Lock retries TryLock with the factory's backoff while the lock is held.
func (l *RedisLock) Lock(ctx context.Context) error {
	options := l.fac.retryOptions
	options.Retryable = func(err error) bool {
		return errors.Is(err, ErrLockHeld)
	}
	return retry.RetryContext(ctx, l.TryLock, options)
}

func (l *RedisLock) Unlock(ctx context.Context) error {
	l.stopRenew()

	n, err := l.fac.client.Eval(ctx, delLuaScript, []string{l.key}, l.value).Int()
	if err != nil {
		return errors.Wrapf(err, "unlock %s", l.key)
	}
	if n == 0 {
		return errors.Wrap(ErrLockNotHeld, l.key)
	}
	return nil
}

func (l *RedisLock) IsHoldLock(ctx context.Context) (bool, error) {
	v, err := l.fac.client.Get(ctx, l.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return v == l.value, nil
}

func (l *RedisLock) doRenew() {
	// a stopped timer may still fire once
	l.mu.Lock()
	held := l.held
	l.mu.Unlock()
	if !held {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.ttl/2)
	defer cancel()

	n, err := l.fac.client.Eval(ctx, renewLuaScript, []string{l.key}, l.value, l.ttl.Milliseconds()).Int()
	if err != nil {
		log.Warn(ctx, "renew lock failed", zap.String("key", l.key), zap.Error(err))
		return
	}
	if n == 0 {
		log.Warn(ctx, "lock lost before renewal", zap.String("key", l.key))
		l.stopRenew()
	}
}

func (l *RedisLock) stopRenew() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}
