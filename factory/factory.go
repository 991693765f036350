// Package factory builds the configured completion provider and its paired
// embedding provider once, at process start.
//
// The provider family is chosen by substring of the completion config file
// name, case-sensitively. Directory names never take part:
//
//	./conf/hybrid_config.json  -> hybrid router (Gemini for text, OpenAI for media)
//	./conf/openai_config.json  -> OpenAI, which also serves embeddings
//	./conf/claude_config.json  -> Claude, embeddings from the OpenAI embed config
//	./conf/gemini_config.json  -> Gemini, embeddings from the OpenAI embed config
//
// A descriptor that is itself a JSON object is an inline hybrid config:
//
//	{"gemini_cfg": "./conf/gemini_config.json", "openai_cfg": "./conf/openai_config.json"}
//
// Only the OpenAI family produces embeddings, so every other family pairs with an
// OpenAI provider built from the embed config.
package factory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/spetersoncode/cradle"
	"github.com/spetersoncode/cradle/config"
	"github.com/spetersoncode/cradle/internal/provider"
	"github.com/spetersoncode/cradle/internal/provider/claude"
	"github.com/spetersoncode/cradle/internal/provider/gemini"
	"github.com/spetersoncode/cradle/internal/provider/hybrid"
	"github.com/spetersoncode/cradle/internal/provider/openai"
	"github.com/spetersoncode/cradle/internal/retry"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnknownFamily is wrapped by the ConfigError returned for a descriptor
// that names no known provider family.
var ErrUnknownFamily = errors.New("unknown provider family")

// families in match order. hybrid comes first so that a hybrid descriptor that
// also mentions a backend name still resolves to the router.
var families = []cradle.Family{
	cradle.FamilyHybrid,
	cradle.FamilyOpenAI,
	cradle.FamilyClaude,
	cradle.FamilyGemini,
}

// Family resolves the provider family named in the file name of descriptor.
// An inline JSON object is always hybrid.
func Family(descriptor string) (cradle.Family, bool) {
	if isInline(descriptor) {
		return cradle.FamilyHybrid, true
	}
	name := filepath.Base(descriptor)
	for _, f := range families {
		if strings.Contains(name, string(f)) {
			return f, true
		}
	}
	return "", false
}

func isInline(descriptor string) bool {
	return strings.HasPrefix(strings.TrimSpace(descriptor), "{")
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger handed to every provider.
func WithLogger(log logr.Logger) Option {
	return func(f *Factory) {
		f.log = log
	}
}

// WithAsyncWorkers sets the number of async worker slots shared by all
// providers the factory creates.
func WithAsyncWorkers(n int) Option {
	return func(f *Factory) {
		f.workers = n
	}
}

// WithRetry overrides the retry policy of every provider, ignoring the retry
// blocks of the config files.
func WithRetry(maxAttempts int, interval time.Duration) Option {
	return func(f *Factory) {
		f.retry = &retry.Config{MaxAttempts: maxAttempts, Interval: interval}
	}
}

// WithoutRetry makes every provider call its backend once.
func WithoutRetry() Option {
	return func(f *Factory) {
		cfg := retry.Disabled()
		f.retry = &cfg
	}
}

// WithTracerProvider sets the tracer provider used for routing spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(f *Factory) {
		f.tracerProvider = tp
	}
}

// Factory constructs providers. Create one per process and pass it to the
// code that needs providers.
type Factory struct {
	log            logr.Logger
	workers        int
	retry          *retry.Config
	tracerProvider trace.TracerProvider
	bridge         *cradle.Bridge
}

// New creates a factory.
func New(opts ...Option) *Factory {
	f := &Factory{
		log:     logr.Discard(),
		workers: cradle.DefaultAsyncWorkers,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.bridge = cradle.NewBridge(f.workers)
	return f
}

func (f *Factory) providerOptions() []provider.Option {
	opts := []provider.Option{
		provider.WithLogger(f.log),
		provider.WithBridge(f.bridge),
	}
	if f.retry != nil {
		opts = append(opts, provider.WithRetry(*f.retry))
	}
	if f.tracerProvider != nil {
		opts = append(opts, provider.WithTracerProvider(f.tracerProvider))
	}
	return opts
}

// Create builds and initializes the completion provider described by
// llmDescriptor and the embedding provider that pairs with it. For the OpenAI
// family embedDescriptor is ignored. For the hybrid family an empty
// embedDescriptor falls back to the router's own OpenAI backend.
//
// Every failure is a *cradle.ConfigError and happens before any request is sent.
func (f *Factory) Create(ctx context.Context, llmDescriptor, embedDescriptor string) (cradle.Provider, cradle.EmbeddingProvider, error) {
	family, ok := Family(llmDescriptor)
	if !ok {
		return nil, nil, &cradle.ConfigError{Source: llmDescriptor, Err: ErrUnknownFamily}
	}
	log := f.log.WithValues("family", string(family), "config", llmDescriptor)

	var (
		llm      cradle.Provider
		embedder cradle.EmbeddingProvider
		err      error
	)
	switch family {
	case cradle.FamilyOpenAI:
		var p *openai.Provider
		p, err = f.openAI(ctx, llmDescriptor)
		llm, embedder = p, p
	case cradle.FamilyClaude:
		llm, err = f.claude(ctx, llmDescriptor)
		if err == nil {
			embedder, err = f.embedder(ctx, embedDescriptor)
		}
	case cradle.FamilyGemini:
		llm, err = f.gemini(ctx, llmDescriptor)
		if err == nil {
			embedder, err = f.embedder(ctx, embedDescriptor)
		}
	case cradle.FamilyHybrid:
		var r *hybrid.Router
		r, err = f.hybrid(ctx, llmDescriptor)
		if err != nil {
			break
		}
		llm = r
		if strings.TrimSpace(embedDescriptor) == "" {
			embedder = r.Embedder()
		} else {
			embedder, err = f.embedder(ctx, embedDescriptor)
		}
	}
	if err != nil {
		return nil, nil, asConfigError(llmDescriptor, err)
	}

	log.Info("providers created")
	return llm, embedder, nil
}

func (f *Factory) openAI(ctx context.Context, path string) (*openai.Provider, error) {
	cfg, err := config.LoadOpenAI(path)
	if err != nil {
		return nil, err
	}
	p := openai.New(f.providerOptions()...)
	if err := p.Initialize(ctx, *cfg); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *Factory) claude(ctx context.Context, path string) (*claude.Provider, error) {
	cfg, err := config.LoadClaude(path)
	if err != nil {
		return nil, err
	}
	p := claude.New(f.providerOptions()...)
	if err := p.Initialize(ctx, *cfg); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *Factory) gemini(ctx context.Context, path string) (*gemini.Provider, error) {
	cfg, err := config.LoadGemini(path)
	if err != nil {
		return nil, err
	}
	p := gemini.New(f.providerOptions()...)
	if err := p.Initialize(ctx, *cfg); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *Factory) hybrid(ctx context.Context, descriptor string) (*hybrid.Router, error) {
	var (
		cfg *config.Hybrid
		err error
	)
	if isInline(descriptor) {
		cfg, err = config.ParseHybrid([]byte(descriptor))
	} else {
		cfg, err = config.LoadHybrid(descriptor)
	}
	if err != nil {
		return nil, err
	}
	r := hybrid.New(f.providerOptions()...)
	if err := r.Initialize(ctx, *cfg); err != nil {
		return nil, err
	}
	return r, nil
}

func (f *Factory) embedder(ctx context.Context, path string) (cradle.EmbeddingProvider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &cradle.ConfigError{Key: "embed_config", Err: errors.New("an OpenAI embedding config is required")}
	}
	return f.openAI(ctx, path)
}

func asConfigError(source string, err error) error {
	if cradle.IsConfigError(err) {
		return err
	}
	return &cradle.ConfigError{Source: source, Err: fmt.Errorf("create provider: %w", err)}
}
