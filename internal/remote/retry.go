package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how an external call is retried.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int

	// InitialInterval and MaxInterval bound the exponential wait between calls.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// CallTimeout limits each individual call. Zero means no per-call limit.
	CallTimeout time.Duration
}

// DefaultPolicy is three attempts, 500ms growing to 4s, 30s per call.
var DefaultPolicy = Policy{
	Attempts:        3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     4 * time.Second,
	CallTimeout:     30 * time.Second,
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0

	retries := p.Attempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}

// Retry calls op until it succeeds, returns a non-retryable error, the attempts
// run out, or ctx is done.
//
// Each call gets its own context bounded by CallTimeout. A call that runs out
// of its own time while ctx is still live counts as a transient failure.
// Errors that are not marked ErrTransient stop the loop immediately.
//
// The error from the final call is returned unchanged, so callers can still
// inspect its kind.
func Retry[T any](ctx context.Context, p Policy, log *slog.Logger, service string, op func(context.Context) (T, error)) (T, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var result T
	attempt := 0
	operation := func() error {
		attempt++
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
		}
		defer cancel()

		v, err := op(callCtx)
		if err == nil {
			result = v
			return nil
		}

		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) && !IsRetryable(err) {
			err = Transient(service, err)
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Debug("retrying external call", "service", service, "attempt", attempt, "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(operation, p.backOff(ctx), notify)
	if err != nil {
		if IsRetryable(err) {
			log.Warn("external call retries exhausted", "service", service, "attempts", attempt, "error", err)
		}
		var zero T
		return zero, err
	}
	return result, nil
}
