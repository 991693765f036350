// Package provider holds the lifecycle shared by every concrete backend:
// one-time initialization, the retry policy, the async bridge and logging.
package provider

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/spetersoncode/cradle"
	"github.com/spetersoncode/cradle/config"
	"github.com/spetersoncode/cradle/internal/retry"
	"github.com/spetersoncode/cradle/prompt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Base.
type Option func(*Base)

// WithLogger sets the logger. Defaults to logr.Discard().
func WithLogger(log logr.Logger) Option {
	return func(b *Base) {
		b.log = log
	}
}

// WithRetry overrides the retry policy read from the provider config.
func WithRetry(cfg retry.Config) Option {
	return func(b *Base) {
		b.retry = cfg
		b.retryOverride = true
	}
}

// WithBridge sets the async bridge. Providers sharing a bridge share its worker slots.
func WithBridge(bridge *cradle.Bridge) Option {
	return func(b *Base) {
		b.bridge = bridge
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *Base) {
		b.tracerProvider = tp
	}
}

// Base is embedded by every concrete provider.
type Base struct {
	family cradle.Family

	mu    sync.Mutex
	ready atomic.Bool

	retry         retry.Config
	retryOverride bool
	bridge        *cradle.Bridge
	log           logr.Logger

	tracerProvider trace.TracerProvider
}

// New creates an uninitialized Base for the given family.
func New(family cradle.Family, opts ...Option) *Base {
	b := &Base{
		family: family,
		retry:  retry.DefaultConfig(),
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.tracerProvider == nil {
		b.tracerProvider = otel.GetTracerProvider()
	}
	if b.bridge == nil {
		b.bridge = cradle.NewBridge(cradle.DefaultAsyncWorkers)
	}
	b.log = b.log.WithValues("provider", string(family))
	return b
}

// Family returns the provider family.
func (b *Base) Family() cradle.Family { return b.family }

// Logger returns the provider logger.
func (b *Base) Logger() logr.Logger { return b.log }

// Tracer returns a named tracer from the configured provider.
func (b *Base) Tracer(name string) trace.Tracer { return b.tracerProvider.Tracer(name) }

// RetryConfig returns the active retry policy.
func (b *Base) RetryConfig() retry.Config { return b.retry }

// Ready reports whether Initialize has completed.
func (b *Base) Ready() bool { return b.ready.Load() }

// CheckReady returns ErrUninitializedProvider until Initialize has completed.
func (b *Base) CheckReady() error {
	if !b.ready.Load() {
		return cradle.ErrUninitializedProvider
	}
	return nil
}

// Initialize runs build exactly once. A second call returns ErrAlreadyInitialized;
// a failed build leaves the provider uninitialized.
func (b *Base) Initialize(policy config.Retry, build func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready.Load() {
		return cradle.ErrAlreadyInitialized
	}
	if err := build(); err != nil {
		return err
	}
	if !b.retryOverride {
		b.retry = RetryPolicy(policy)
	}
	b.ready.Store(true)
	b.log.V(1).Info("provider initialized",
		"maxAttempts", b.retry.MaxAttempts,
		"interval", b.retry.Interval,
	)
	return nil
}

// CompleteAsync dispatches complete on the bridge after the readiness check.
func (b *Base) CompleteAsync(ctx context.Context, complete cradle.CompleteFunc, req *cradle.CompletionRequest) <-chan cradle.AsyncResult {
	if err := b.CheckReady(); err != nil {
		ch := make(chan cradle.AsyncResult, 1)
		ch <- cradle.AsyncResult{Err: err}
		close(ch)
		return ch
	}
	return b.bridge.Run(ctx, complete, req)
}

// BuildPrompt fills a prompt template. Placeholders without a param are kept
// in the output and logged.
func (b *Base) BuildPrompt(template string, params map[string]any) (string, error) {
	if err := b.CheckReady(); err != nil {
		return "", err
	}
	if missing := prompt.Missing(template, params); len(missing) > 0 {
		b.log.V(1).Info("prompt placeholders without params", "missing", missing)
	}
	return prompt.Build(template, params), nil
}

// Call runs fn under the provider retry policy and logs every retry event.
// A nil result counts as an empty response and is retried.
func Call[T any](ctx context.Context, b *Base, op string, fn func() (*T, error)) (*T, error) {
	events, stop := retry.LogEvents(b.log.WithValues("op", op))
	res, err := retry.DoNonNil(ctx, b.retry, events, fn)
	stop()
	return res, err
}

// RetryPolicy converts a config retry block into a retry policy, keeping the
// defaults for unset fields.
func RetryPolicy(r config.Retry) retry.Config {
	cfg := retry.DefaultConfig()
	if r.MaxAttempts > 0 {
		cfg.MaxAttempts = r.MaxAttempts
	}
	if r.IntervalSeconds > 0 {
		cfg.Interval = time.Duration(r.IntervalSeconds * float64(time.Second))
	}
	return cfg
}

// APIKey reads the credential named by envVar from the process environment.
// An unset or blank variable is a configuration error.
func APIKey(source, envVar string) (string, error) {
	key := strings.TrimSpace(os.Getenv(envVar))
	if key == "" {
		return "", &cradle.ConfigError{Source: source, EnvVar: envVar}
	}
	return key, nil
}

// Model returns the request model override, or the configured model.
func Model(req *cradle.CompletionRequest, configured string) string {
	if req.Model != "" {
		return req.Model
	}
	return configured
}
