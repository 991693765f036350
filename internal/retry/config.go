// Package retry wraps a single backend call with bounded, constant-interval retry.
//
// Every error is treated as transient: the wrapper does not classify failures.
// After the last attempt the error of that attempt is returned unchanged.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the total number of attempts, the first call included.
	MaxAttempts int

	// Interval is the constant wait between two attempts.
	Interval time.Duration
}

// Default policy shared by every provider.
const (
	DefaultMaxAttempts = 5
	DefaultInterval    = 10 * time.Second
)

// DefaultConfig returns the default retry configuration:
//   - 5 attempts
//   - 10 second constant interval
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
	}
}

// Disabled returns a configuration that disables retries (single attempt).
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// attempts returns MaxAttempts, never less than one.
func (c Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// schedule returns the constant backoff that produces the wait between attempts.
func (c Config) schedule() backoff.BackOff {
	return backoff.NewConstantBackOff(c.Interval)
}
