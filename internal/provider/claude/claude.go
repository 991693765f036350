// Package claude implements the Claude-backed provider over the Anthropic
// Messages API.
package claude

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spetersoncode/cradle"
	"github.com/spetersoncode/cradle/config"
	"github.com/spetersoncode/cradle/internal/provider"
	"github.com/spetersoncode/cradle/prompt"
)

// Provider wraps the Anthropic SDK to implement cradle.Provider.
type Provider struct {
	*provider.Base

	client *anthropic.Client
	model  string
}

// New creates an uninitialized Claude provider.
func New(opts ...provider.Option) *Provider {
	return &Provider{Base: provider.New(cradle.FamilyClaude, opts...)}
}

// Initialize reads the API key named by cfg.KeyVar and builds the SDK client.
func (p *Provider) Initialize(_ context.Context, cfg config.Claude) error {
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
		client := anthropic.NewClient(opts...)

		p.client = &client
		p.model = cfg.CompModel
		return nil
	})
}

// Complete sends the conversation to the Messages API. System messages become
// the system prompt. The request seed is not supported by the API and is ignored.
func (p *Provider) Complete(ctx context.Context, req *cradle.CompletionRequest) (*cradle.CompletionResult, error) {
	if err := p.CheckReady(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msgs, system := convertMessages(req.Messages)
	model := provider.Model(req, p.model)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature),
	}
	if len(system) > 0 {
		params.System = system
	}

	res, err := provider.Call(ctx, p.Base, "complete", func() (*cradle.CompletionResult, error) {
		resp, err := p.client.Messages.New(ctx, params)
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

// EstimateTokenCount returns the whitespace word count of the flattened
// conversation, an approximation of Claude's own tokenization.
func (p *Provider) EstimateTokenCount(messages []cradle.Message) (int, error) {
	if err := p.CheckReady(); err != nil {
		return 0, err
	}
	return prompt.WordCount(messages), nil
}

func convertResponse(resp *anthropic.Message) (*cradle.CompletionResult, error) {
	if resp == nil || len(resp.Content) == 0 {
		return nil, cradle.ErrEmptyResponse
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	input := int(resp.Usage.InputTokens)
	output := int(resp.Usage.OutputTokens)
	return &cradle.CompletionResult{
		Text: b.String(),
		Usage: cradle.Usage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
		Backend: cradle.FamilyClaude,
	}, nil
}

var _ cradle.Provider = (*Provider)(nil)
