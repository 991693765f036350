// Package openai implements the OpenAI-backed provider.
//
// OpenAI receives the structured conversation natively, images included, and
// also serves text embeddings. Token estimates use the tiktoken encoding of the
// configured model.
package openai

import (
	"context"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spetersoncode/cradle"
	"github.com/spetersoncode/cradle/config"
	"github.com/spetersoncode/cradle/internal/provider"
	"github.com/tiktoken-go/tokenizer"
)

// Provider wraps the OpenAI SDK to implement cradle.Provider and
// cradle.EmbeddingProvider.
type Provider struct {
	*provider.Base

	client   *openai.Client
	model    string
	embModel string

	codecOnce sync.Once
	codec     tokenizer.Codec
	codecErr  error
}

// New creates an uninitialized OpenAI provider.
func New(opts ...provider.Option) *Provider {
	return &Provider{Base: provider.New(cradle.FamilyOpenAI, opts...)}
}

// Initialize reads the API key named by cfg.KeyVar and builds the SDK client.
// SDK-level retries are disabled; the provider retry policy applies instead.
func (p *Provider) Initialize(_ context.Context, cfg config.OpenAI) error {
	return p.Base.Initialize(cfg.Retry, func() error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		key, err := provider.APIKey(cfg.Source, cfg.KeyVar)
		if err != nil {
			return err
		}

		opts := []option.RequestOption{
			option.WithAPIKey(key),
			option.WithMaxRetries(0),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		client := openai.NewClient(opts...)

		p.client = &client
		p.model = cfg.CompModel
		p.embModel = cfg.EmbModel
		return nil
	})
}

// Complete sends the conversation as native chat messages.
func (p *Provider) Complete(ctx context.Context, req *cradle.CompletionRequest) (*cradle.CompletionResult, error) {
	if err := p.CheckReady(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	messages, dropped := convertMessages(req.Messages)
	if dropped > 0 {
		p.Logger().Info("unsupported parts dropped from request", "dropped", dropped)
	}

	model := provider.Model(req, p.model)
	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}
	if req.Seed != nil {
		params.Seed = openai.Int(int64(*req.Seed))
	}

	res, err := provider.Call(ctx, p.Base, "complete", func() (*cradle.CompletionResult, error) {
		resp, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, err
		}
		return convertResponse(resp)
	})
	if err != nil {
		return nil, err
	}

	p.Logger().Info("completion finished",
		"model", model,
		"promptTokens", res.Usage.PromptTokens,
		"completionTokens", res.Usage.CompletionTokens,
	)
	return res, nil
}

// CompleteAsync runs Complete on the async bridge.
func (p *Provider) CompleteAsync(ctx context.Context, req *cradle.CompletionRequest) <-chan cradle.AsyncResult {
	return p.Base.CompleteAsync(ctx, p.Complete, req)
}

func convertResponse(resp *openai.ChatCompletion) (*cradle.CompletionResult, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, cradle.ErrEmptyResponse
	}
	// A refusal arrives in its own field with empty content. Surface it as the
	// answer text so callers can recognize it.
	msg := resp.Choices[0].Message
	text := msg.Content
	if text == "" {
		text = msg.Refusal
	}
	if text == "" {
		return nil, cradle.ErrEmptyResponse
	}
	return &cradle.CompletionResult{
		Text: text,
		Usage: cradle.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		Backend: cradle.FamilyOpenAI,
	}, nil
}

var _ cradle.Provider = (*Provider)(nil)
var _ cradle.EmbeddingProvider = (*Provider)(nil)
