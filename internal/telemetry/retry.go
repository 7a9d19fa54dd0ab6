// Package telemetry implements an optional platform-read retry policy:
// bounded, opt-in per call site, used to work around transient platform
// flakiness when reading live accessibility state. Callers decide which
// platform reads are flaky enough to warrant it (attribute/value/frame
// reads), never wrapping a whole request. AttributeUnsupported and NoValue
// are retried; PermissionDenied and any other error are treated as
// permanent.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/macmcp/macmcp/internal/platform"
)

// ReadPolicy bounds retries of a single platform read. Defaults are chosen
// conservatively since platform reads sit on the request's cancellation
// deadline.
type ReadPolicy struct {
	MaxTries uint
	InitialBackoff time.Duration
	MaxBackoff time.Duration
}

func DefaultReadPolicy() ReadPolicy {
	return ReadPolicy{
		MaxTries: 3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff: 100 * time.Millisecond,
	}
}

// RetryRead runs read, retrying on platform.ErrAttributeUnsupported and
// platform.ErrNoValue (benign races against a live accessibility tree) up
// to policy.MaxTries. platform.ErrPermissionDenied and any other error are
// treated as permanent and returned immediately without retrying.
func RetryRead[T any](ctx context.Context, policy ReadPolicy, read func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialBackoff
	b.MaxInterval = policy.MaxBackoff

	op := func() (T, error) {
		v, err := read()
		if err == nil {
			return v, nil
		}
		if isRetryable(err) {
			return v, err
		}
		return v, backoff.Permanent(err)
	}

	return backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(policy.MaxTries))
}

func isRetryable(err error) bool {
	return errors.Is(err, platform.ErrAttributeUnsupported) || errors.Is(err, platform.ErrNoValue)
}
