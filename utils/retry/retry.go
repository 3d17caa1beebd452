package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

type RetryOptions struct {
	// MaxRetries the maximum number of attempts, at least one is always made
	MaxRetries int
	// InitialBackoff the initial backoff interval
	InitialBackoff time.Duration
	// MaxBackoff the maximum backoff interval
	MaxBackoff time.Duration
	// Retryable decides whether an error is worth another attempt.
	// Nil retries every error.
	Retryable func(err error) bool
}

// Retry runs operation until it succeeds, returns a non-retryable error or
// the attempts are used up.
func Retry(operation func() error, options RetryOptions) error {
	return RetryContext(context.Background(), func(context.Context) error {
		return operation()
	}, options)
}

// RetryContext is Retry bound to ctx: a cancelled context stops the backoff
// sleep and returns ctx.Err().
func RetryContext(ctx context.Context, operation func(ctx context.Context) error, options RetryOptions) error {
	attempts := max(options.MaxRetries, 1)
	for i := 0; ; i++ {
		err := operation(ctx)
		// if no error, return nil
		if err == nil {
			return nil
		}

		if options.Retryable != nil && !options.Retryable(err) {
			return err
		}

		// if last retry, return error
		if i == attempts-1 {
			return err
		}

		timer := time.NewTimer(options.backoff(i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// backoff is the wait after the given failed attempt: InitialBackoff doubled
// per attempt plus up to as much again in jitter, capped at MaxBackoff.
func (o RetryOptions) backoff(attempt int) time.Duration {
	d := jitterBackoff(attempt, o.InitialBackoff)
	if o.MaxBackoff > 0 && d > o.MaxBackoff {
		d = o.MaxBackoff
	}
	return d
}

func jitterBackoff(attempt int, base time.Duration) time.Duration {
	backoff := base * time.Duration(1<<uint(attempt))
	if backoff <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)))

	return backoff + jitter
}
