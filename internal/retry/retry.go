package retry

import (
	"context"
	"errors"
	"time"
)

// Policy is a fixed retry budget: total attempts and the pause between them.
// The zero value means a single attempt with no backoff.
type Policy struct {
	Attempts int
	Backoff  time.Duration
}

// Do runs fn up to p.Attempts times, sleeping p.Backoff between attempts.
// A Permanent error stops retrying immediately. Context cancellation is
// honored during backoff.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && p.Backoff > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
	}
	return err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }
