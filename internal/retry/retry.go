// Package retry provides exponential backoff with jitter for operations
// against external infrastructure (database, redis) during startup.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")

// Config controls the backoff schedule.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// InitialInterval is the first backoff interval.
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval.
	MaxInterval time.Duration
	// Multiplier grows the interval after each attempt.
	Multiplier float64
	// JitterFactor (0-1) randomizes each interval by ±factor.
	JitterFactor float64
}

// DefaultConfig retries 3 times with intervals of roughly 1s, 2s, 4s.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried.
type Operation func(ctx context.Context) error

// PermanentError wraps an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks an error as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Do executes op with exponential backoff until it succeeds, returns a
// permanent error, the retries are exhausted, or ctx is done. The returned
// error wraps the error from the last attempt.
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, lastErr)
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(lastErr, &perm) {
			return perm.Err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), lastErr)
		case <-time.After(interval(cfg, attempt)):
		}
	}

	return errors.Join(ErrMaxAttemptsExceeded, lastErr)
}

func interval(cfg *Config, attempt int) time.Duration {
	initial := cfg.InitialInterval
	if initial <= 0 {
		initial = time.Second
	}
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	d := float64(initial) * math.Pow(multiplier, float64(attempt))

	if cfg.JitterFactor > 0 {
		jitter := d * cfg.JitterFactor
		d += (rand.Float64()*2 - 1) * jitter
	}

	if max := float64(cfg.MaxInterval); max > 0 && d > max {
		d = max
	}
	if d < 0 {
		d = float64(initial)
	}

	return time.Duration(d)
}
