package redis_lock

import (
	"context"

	"go.uber.org/zap"

	"consultai/utils/log"
)

// RunLock runs fn while holding the named lock, so two instances never run
// the same pipeline stage at once. A nil factory runs fn unguarded.
func RunLock(ctx context.Context, fac *LockFac, name string, fn func(ctx context.Context) error) error {
	if fac == nil {
		return fn(ctx)
	}

	lock := fac.NewLock(name)
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warn(ctx, "release run lock", zap.String("name", name), zap.Error(err))
		}
	}()

	return fn(ctx)
}
