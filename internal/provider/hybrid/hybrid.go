// Package hybrid implements the routing provider. It owns a text backend
// (Gemini) and a media backend (OpenAI) and picks one per request:
//
//  1. A request with any non-text part goes to the media backend.
//  2. A request whose text contains a combat or input keyword also goes to the
//     media backend, whatever its parts.
//  3. Everything else goes to the text backend.
//
// When a keyword forced the media route and the answer reads as a refusal, the
// request text is sanitized and sent once to the text backend, whose result or
// error is final.
package hybrid

import (
	"context"

	"github.com/google/uuid"
	"github.com/spetersoncode/cradle"
	"github.com/spetersoncode/cradle/config"
	"github.com/spetersoncode/cradle/internal/provider"
	"github.com/spetersoncode/cradle/internal/provider/gemini"
	"github.com/spetersoncode/cradle/internal/provider/openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/spetersoncode/cradle/internal/provider/hybrid"

// Router is the hybrid provider.
type Router struct {
	*provider.Base

	opts   []provider.Option
	text   cradle.Provider
	media  cradle.Provider
	tracer trace.Tracer

	// embedder is the OpenAI backend built by Initialize, nil for injected backends.
	embedder *openai.Provider
}

// New creates an uninitialized router. The options are also applied to the
// two backends built by Initialize.
func New(opts ...provider.Option) *Router {
	r := &Router{
		Base: provider.New(cradle.FamilyHybrid, opts...),
		opts: opts,
	}
	r.tracer = r.Tracer(tracerName)
	return r
}

// NewWithBackends creates a ready router over already initialized backends.
func NewWithBackends(text, media cradle.Provider, opts ...provider.Option) *Router {
	r := New(opts...)
	r.text = text
	r.media = media
	_ = r.Base.Initialize(config.Retry{}, func() error { return nil })
	return r
}

// Initialize builds and initializes the Gemini text backend and the OpenAI
// media backend from cfg.
func (r *Router) Initialize(ctx context.Context, cfg config.Hybrid) error {
	return r.Base.Initialize(config.Retry{}, func() error {
		text := gemini.New(r.opts...)
		if err := text.Initialize(ctx, cfg.Gemini); err != nil {
			return err
		}
		media := openai.New(r.opts...)
		if err := media.Initialize(ctx, cfg.OpenAI); err != nil {
			return err
		}
		r.text = text
		r.media = media
		r.embedder = media
		return nil
	})
}

// Embedder returns the OpenAI backend built by Initialize, or nil.
func (r *Router) Embedder() cradle.EmbeddingProvider {
	if r.embedder == nil {
		return nil
	}
	return r.embedder
}

// Complete routes the request and runs the refusal fallback.
func (r *Router) Complete(ctx context.Context, req *cradle.CompletionRequest) (*cradle.CompletionResult, error) {
	if err := r.CheckReady(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "cradle.router.complete")
	defer span.End()

	d := Classify(req.Messages)
	log := r.Logger().WithValues("requestId", uuid.NewString())
	log.V(1).Info("routing request",
		"route", d.Route,
		"media", d.Media,
		"keyword", d.Keyword,
	)
	span.SetAttributes(
		attribute.String("route", string(d.Route)),
		attribute.Bool("keyword", d.KeywordOverride()),
		attribute.Bool("refusal", false),
	)

	if !d.KeywordOverride() {
		res, err := r.backend(d.Route).Complete(ctx, req)
		return res, recordError(span, err)
	}

	res, err := r.media.Complete(ctx, req)
	if err != nil {
		return nil, recordError(span, err)
	}
	if !IsRefusal(res.Text) {
		return res, nil
	}

	log.Info("media backend refused, retrying sanitized request on text backend", "keyword", d.Keyword)
	span.SetAttributes(attribute.Bool("refusal", true))

	res, err = r.text.Complete(ctx, req.WithMessages(Sanitize(req.Messages)))
	return res, recordError(span, err)
}

// CompleteAsync runs the same decision sequence as Complete on the async bridge.
func (r *Router) CompleteAsync(ctx context.Context, req *cradle.CompletionRequest) <-chan cradle.AsyncResult {
	return r.Base.CompleteAsync(ctx, r.Complete, req)
}

// EstimateTokenCount delegates to the backend the messages would be routed to.
func (r *Router) EstimateTokenCount(messages []cradle.Message) (int, error) {
	if err := r.CheckReady(); err != nil {
		return 0, err
	}
	return r.backend(Classify(messages).Route).EstimateTokenCount(messages)
}

func (r *Router) backend(route Route) cradle.Provider {
	if route == RouteMedia {
		return r.media
	}
	return r.text
}

func recordError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

var _ cradle.Provider = (*Router)(nil)
