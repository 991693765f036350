package cradle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned when a required input slice is empty.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidRequest is returned when a request violates its invariants.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConfiguration matches every *ConfigError via errors.Is.
	ErrConfiguration = errors.New("configuration error")

	// ErrUninitializedProvider is returned when a provider is used before Initialize.
	ErrUninitializedProvider = errors.New("uninitialized provider")

	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("provider already initialized")

	// ErrEmptyResponse is returned when a backend answers with a structurally empty
	// response. It is retried like any other failure.
	ErrEmptyResponse = errors.New("empty response from backend")
)

// ConfigError reports a missing or invalid configuration value.
// Configuration errors are fatal and never retried.
type ConfigError struct {
	// Source is the config path or family the value was read from.
	Source string
	// Key is the missing or invalid config key.
	Key string
	// EnvVar is the environment variable that was unset or empty.
	EnvVar string
	// Err is the underlying cause, if any.
	Err error
}

// Error returns a message naming the offending key or variable.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	switch {
	case e.EnvVar != "":
		fmt.Fprintf(&b, ": environment variable %q is not set or empty", e.EnvVar)
	case e.Key != "":
		fmt.Fprintf(&b, ": missing or empty key %q", e.Key)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is makes every ConfigError match ErrConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// IsConfigError reports whether err is or wraps a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// BlockedError indicates a backend rejected the prompt outright.
// It is an ordinary failure for retry purposes.
type BlockedError struct {
	Backend Family
	Reason  string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s blocked the request: %s", e.Backend, e.Reason)
}
