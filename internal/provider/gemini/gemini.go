// Package gemini implements the Gemini-backed provider.
//
// Gemini receives a single flattened prompt: structured messages are rendered
// as "<Role>: <text>" lines and opaque parts such as images are dropped. Every
// call carries the same fixed safety settings with all four harm categories set
// to BLOCK_NONE.
package gemini

import (
	"context"
	"strings"

	"github.com/spetersoncode/cradle"
	"github.com/spetersoncode/cradle/config"
	"github.com/spetersoncode/cradle/internal/provider"
	"github.com/spetersoncode/cradle/prompt"
	"google.golang.org/genai"
)

// Provider completes requests with the Gemini API.
type Provider struct {
	*provider.Base

	client *genai.Client
	model  string
}

// New creates an uninitialized Gemini provider.
func New(opts ...provider.Option) *Provider {
	return &Provider{Base: provider.New(cradle.FamilyGemini, opts...)}
}

// Initialize reads the API key named by cfg.KeyVar and builds the SDK client.
// No request is sent.
func (p *Provider) Initialize(ctx context.Context, cfg config.Gemini) error {
	return p.Base.Initialize(cfg.Retry, func() error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		key, err := provider.APIKey(cfg.Source, cfg.KeyVar)
		if err != nil {
			return err
		}

		cc := &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		}
		if cfg.BaseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return &cradle.ConfigError{Source: cfg.Source, Err: err}
		}

		p.client = client
		p.model = cfg.CompModel
		return nil
	})
}

// Complete flattens the request into one prompt and sends it with the fixed
// safety settings. Empty responses are retried.
func (p *Provider) Complete(ctx context.Context, req *cradle.CompletionRequest) (*cradle.CompletionResult, error) {
	if err := p.CheckReady(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	text := prompt.Flatten(req.Messages)
	if n := prompt.Omitted(req.Messages); n > 0 {
		p.Logger().Info("non-text parts omitted from flattened prompt", "omitted", n)
	}

	model := provider.Model(req, p.model)
	contents := genai.Text(text)
	genCfg := generateConfig(req)

	res, err := provider.Call(ctx, p.Base, "complete", func() (*cradle.CompletionResult, error) {
		resp, err := p.client.Models.GenerateContent(ctx, model, contents, genCfg)
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

// EstimateTokenCount returns the whitespace word count of the flattened prompt.
// Gemini tokenizes differently; the value is an approximation for budgeting.
func (p *Provider) EstimateTokenCount(messages []cradle.Message) (int, error) {
	if err := p.CheckReady(); err != nil {
		return 0, err
	}
	return prompt.WordCount(messages), nil
}

// SafetySettings returns the settings attached to every request: dangerous
// content, harassment, hate speech and sexually explicit, all BLOCK_NONE.
func SafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
	}
	settings := make([]*genai.SafetySetting, len(categories))
	for i, c := range categories {
		settings[i] = &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		}
	}
	return settings
}

func generateConfig(req *cradle.CompletionRequest) *genai.GenerateContentConfig {
	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
		SafetySettings:  SafetySettings(),
	}
	if req.Seed != nil {
		seed := int32(*req.Seed)
		cfg.Seed = &seed
	}
	return cfg
}

// convertResponse extracts the first candidate text and the usage metadata.
// A blocked prompt or a response without candidates is an error.
func convertResponse(resp *genai.GenerateContentResponse) (*cradle.CompletionResult, error) {
	if resp == nil {
		return nil, cradle.ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &cradle.BlockedError{
			Backend: cradle.FamilyGemini,
			Reason:  string(resp.PromptFeedback.BlockReason),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, cradle.ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	// A safety stop comes back as a candidate without text parts.
	if b.Len() == 0 {
		return nil, cradle.ErrEmptyResponse
	}

	usage := cradle.Usage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &cradle.CompletionResult{
		Text:    b.String(),
		Usage:   usage,
		Backend: cradle.FamilyGemini,
	}, nil
}

var _ cradle.Provider = (*Provider)(nil)
