// Package retry runs idempotent provider calls with bounded quadratic backoff.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Policy bounds a retried call. Retries counts calls after the first one.
type Policy struct {
	Retries int
	Base    time.Duration
	Op      string
}

// Permanent wraps err so Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Do calls fn until it succeeds, returns a permanent error, the retries are
// exhausted, or ctx is done. The wait before retry n is n*n*Base.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * p.Base
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(backoff):
			}
			slog.Debug("retrying provider call", "op", p.Op, "attempt", attempt, "error", lastErr)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
	}
	return lastErr
}

// Transient reports whether an HTTP status is worth retrying.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
