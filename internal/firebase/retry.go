package firebase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"firebase.google.com/go/v4/errorutils"
	"github.com/cenkalti/backoff/v5"
)

// retryPolicy retries idempotent remote calls with exponential backoff.
type retryPolicy struct {
	attempts uint
	initial  time.Duration
}

func newRetryPolicy(attempts uint) retryPolicy {
	if attempts == 0 {
		attempts = 1
	}
	return retryPolicy{attempts: attempts, initial: 200 * time.Millisecond}
}

func (p retryPolicy) do(ctx context.Context, op string, fn func() error) error {
	if p.attempts <= 1 {
		return fn()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initial

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if err != nil && !isTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(ctx, "retrying remote call", "component", "firebase", "op", op, "error", err, "next", next)
		}),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}

// isTransient reports whether a failed call may succeed when repeated.
// Client-side rejections are final.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch {
	case errorutils.IsInvalidArgument(err),
		errorutils.IsNotFound(err),
		errorutils.IsPermissionDenied(err),
		errorutils.IsUnauthenticated(err),
		errorutils.IsFailedPrecondition(err),
		errorutils.IsAlreadyExists(err):
		return false
	}
	return true
}
