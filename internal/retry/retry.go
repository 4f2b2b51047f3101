// Package retry provides exponential backoff around fallible operations.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Defaults applied by Config.normalize.
const (
	DefaultRetries  = 3
	DefaultMinDelay = 500 * time.Millisecond
	DefaultFactor   = 2.0
)

// Config holds retry parameters for exponential backoff.
//
// Invalid values are normalized:
//   - Retries < 0 becomes DefaultRetries
//   - MinDelay <= 0 becomes DefaultMinDelay
//   - Factor < 1 becomes DefaultFactor
type Config struct {
	// Retries is the number of additional attempts after the first failure.
	Retries int
	// MinDelay is the sleep before the first retry.
	MinDelay time.Duration
	// Factor multiplies the delay after each failed attempt.
	Factor float64
}

// normalize ensures all Config fields have valid values.
func (c *Config) normalize() {
	if c.Retries < 0 {
		c.Retries = DefaultRetries
	}
	if c.MinDelay <= 0 {
		c.MinDelay = DefaultMinDelay
	}
	if c.Factor < 1 {
		c.Factor = DefaultFactor
	}
}

// Delay returns the sleep before retry attempt n (1-based):
// floor(minDelay * factor^(n-1)), computed in integer milliseconds.
func (c Config) Delay(attempt int) time.Duration {
	ms := float64(c.MinDelay.Milliseconds()) * math.Pow(c.Factor, float64(attempt-1))
	return time.Duration(math.Floor(ms)) * time.Millisecond
}

// Do executes fn, retrying on any error with exponential backoff.
// Every failure is retried until the budget is exhausted; the caller is
// responsible for bounding total time via ctx or per-call timeouts.
// Returns the result of the first success, or the last error once the
// attempt budget is spent.
//
// Invalid Config values are normalized (see Config documentation).
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	cfg.normalize()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(cfg.Delay(attempt))
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.Retries, lastErr)
}
