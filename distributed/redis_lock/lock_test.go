package redis_lock

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultai/utils/retry"
)

var ctx = context.Background()

func setup(t *testing.T, options ...FacOption) (*LockFac, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	fac := NewLockFac(client, options...)
	t.Cleanup(func() {
		fac.Close()
		client.Close()
	})
	return fac, mr
}

func TestRedisLock_LockUnlock(t *testing.T) {
	fac, _ := setup(t)
	redisLock := fac.NewLock("test-key")

	// try to acquire the lock
	err := redisLock.Lock(ctx)
	assert.NoError(t, err, "failed to acquire the lock")

	// check if the lock is held
	isLocked, err := redisLock.IsHoldLock(ctx)
	assert.NoError(t, err, "failed to check if the lock is held")
	assert.True(t, isLocked, "the lock is not held")

	// try to release the lock
	err = redisLock.Unlock(ctx)
	assert.NoError(t, err, "failed to release the lock")

	// check if the lock is released
	isLocked, err = redisLock.IsHoldLock(ctx)
	assert.NoError(t, err, "failed to check if the lock is held")
	assert.False(t, isLocked, "the lock is held")
}

func TestRedisLock_SecondOwnerBlocked(t *testing.T) {
	fac, _ := setup(t, WithRetryOptions(retry.RetryOptions{MaxRetries: 2, InitialBackoff: time.Millisecond}))
	first := fac.NewLock("stage")
	second := fac.NewLock("stage")

	require.NoError(t, first.TryLock(ctx))
	assert.ErrorIs(t, second.Lock(ctx), ErrLockHeld)

	// only the owner can release
	assert.ErrorIs(t, second.Unlock(ctx), ErrLockNotHeld)
	require.NoError(t, first.Unlock(ctx))
	require.NoError(t, second.TryLock(ctx))
	require.NoError(t, second.Unlock(ctx))
}

func TestRedisLock_ZeroRetriesStillLocks(t *testing.T) {
	fac, _ := setup(t, WithRetryOptions(retry.RetryOptions{}))
	assert.Equal(t, 1, fac.retryOptions.MaxRetries)

	l := fac.NewLock("once")
	require.NoError(t, l.Lock(ctx))
	assert.ErrorIs(t, fac.NewLock("once").Lock(ctx), ErrLockHeld)
	require.NoError(t, l.Unlock(ctx))
}

func TestRedisLock_Renew(t *testing.T) {
	fac, mr := setup(t, WithTTL(200*time.Millisecond))
	l := fac.NewLock("renewed")
	require.NoError(t, l.TryLock(ctx))

	// the wheel renews every 100ms; the TTL must be pushed back to the full value
	mr.SetTTL(keyPrefix+"renewed", 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return mr.TTL(keyPrefix+"renewed") > 100*time.Millisecond
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, l.Unlock(ctx))
	assert.False(t, mr.Exists(keyPrefix+"renewed"))
}

func TestRunLock(t *testing.T) {
	fac, mr := setup(t)

	var ran atomic.Bool
	err := RunLock(ctx, fac, "process", func(ctx context.Context) error {
		ran.Store(true)
		assert.True(t, mr.Exists(keyPrefix+"process"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran.Load())
	assert.False(t, mr.Exists(keyPrefix+"process"))

	boom := errors.New("boom")
	err = RunLock(ctx, fac, "process", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(keyPrefix+"process"))
}

func TestRunLockWithoutFactory(t *testing.T) {
	called := false
	err := RunLock(ctx, nil, "process", func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
