package gateway

import (
	"context"
	"log/slog"
	"time"
)

// Retry defaults.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = time.Second
)

// Adapter decorates outbound rail calls with bounded exponential-backoff
// retries. It never alters the business semantics of the wrapped call, only
// its failure behavior: retryable errors are re-attempted, everything else is
// surfaced immediately.
type Adapter struct {
	maxRetries   int
	initialDelay time.Duration
	logger       *slog.Logger
	onAttempt    func()
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRetries overrides the retry count and initial delay.
func WithRetries(maxRetries int, initialDelay time.Duration) Option {
	return func(a *Adapter) {
		a.maxRetries = maxRetries
		a.initialDelay = initialDelay
	}
}

// WithAttemptHook registers a callback invoked before every attempt. Used for
// metrics.
func WithAttemptHook(hook func()) Option {
	return func(a *Adapter) { a.onAttempt = hook }
}

// NewAdapter builds a retry adapter.
func NewAdapter(logger *slog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		maxRetries:   DefaultMaxRetries,
		initialDelay: DefaultInitialDelay,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxRetries < 0 {
		a.maxRetries = 0
	}
	if a.initialDelay <= 0 {
		a.initialDelay = DefaultInitialDelay
	}
	return a
}

// Do runs fn, retrying retryable failures up to the configured bound. The
// delay before retry n doubles each time (1s, 2s, 4s by default) and honors
// the caller's context: a cancelled deadline aborts pending retries but never
// an in-flight attempt.
func (a *Adapter) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if a.onAttempt != nil {
			a.onAttempt()
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		if attempt == a.maxRetries {
			break
		}

		delay := a.initialDelay << attempt
		if a.logger != nil {
			a.logger.Warn("gateway call failed, retrying",
				"operation", op, "attempt", attempt+1, "delay", delay, "error", err)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if a.logger != nil {
		a.logger.Error("gateway call exhausted retries", "operation", op, "error", err)
	}
	return err
}
