package table_cache

import (
	"math/rand/v2"
	"time"
)

// wheelTick is the manager's wheel resolution and the jitter bound.
const wheelTick = time.Second

// refreshEvery reschedules a table pull at a fixed period.
type refreshEvery time.Duration

func (r refreshEvery) Next(prev time.Time) time.Time {
	return prev.Add(time.Duration(r))
}

// jitter moves base by up to one tick either way so tables sharing an
// interval do not hit the database on the same tick. Never below one tick.
func jitter(base time.Duration) time.Duration {
	d := base + time.Duration(rand.Int64N(int64(2*wheelTick))) - wheelTick
	return max(d, wheelTick)
}
