package llm

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"
)

// RetryProvider retries failed calls with jittered exponential backoff.
// The factory only installs it when RetryConfig.MaxAttempts is above one;
// by default a failed call goes straight to the caller's fallback.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps p with retries.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		lastErr        error
		invalidRetried bool
	)
	attempt := func() (*Response, error) {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}

		// A malformed completion gets one more try; a second one is
		// unlikely to be a fluke.
		var invalid *ErrInvalidResponse
		if errors.As(err, &invalid) {
			if invalidRetried {
				return nil, backoff.Permanent(err)
			}
			invalidRetried = true
		}

		var limited *ErrRateLimit
		if errors.As(err, &limited) && limited.RetryAfter > 0 {
			return nil, &backoff.RetryAfterError{Duration: limited.RetryAfter}
		}
		return nil, err
	}

	resp, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(r.policy()),
		backoff.WithMaxTries(uint(max(r.config.MaxAttempts, 1))),
	)
	if err == nil {
		return resp, nil
	}
	// Report the provider's error rather than the retry wrapper's, unless
	// the caller gave up first.
	if lastErr != nil && ctx.Err() == nil {
		return nil, lastErr
	}
	return nil, err
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func (r *RetryProvider) policy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.InitialWait
	b.MaxInterval = r.config.MaxWait
	b.Multiplier = r.config.Multiplier
	b.RandomizationFactor = 0.2
	return b
}
