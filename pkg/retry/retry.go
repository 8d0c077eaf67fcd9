// Package retry wraps document-store calls with exponential backoff on transient
// gRPC failures.
package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Policy describes how many attempts to make and the first backoff delay.
type Policy struct {
	Attempts  uint64
	BaseDelay time.Duration
}

// DefaultPolicy makes three attempts starting at one second, doubling each time.
var DefaultPolicy = Policy{Attempts: 3, BaseDelay: time.Second}

// Transient reports whether err is worth retrying: the backend was offline or timed out.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	}
	return false
}

// Do runs fn until it succeeds, returns a non-transient error, or attempts run out.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.Attempts <= 1 {
		return fn(ctx)
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultPolicy.BaseDelay
	}
	backoff := goretry.WithMaxRetries(p.Attempts-1, goretry.NewExponential(base))
	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if Transient(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}
