package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/cradle"
	"github.com/spetersoncode/cradle/internal/provider"
)

// Embed generates embeddings for the provided texts with the configured
// embedding model. The call follows the provider retry policy.
func (p *Provider) Embed(ctx context.Context, texts []string) (*cradle.EmbeddingResult, error) {
	if err := p.CheckReady(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: at least one text is required for embedding", cradle.ErrEmptyInput)
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.embModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}

	return provider.Call(ctx, p.Base, "embed", func() (*cradle.EmbeddingResult, error) {
		resp, err := p.client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, err
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", cradle.ErrEmptyResponse, len(resp.Data), len(texts))
		}

		// Data carries an index; order by it rather than trusting response order.
		embeddings := make([][]float64, len(resp.Data))
		for i, data := range resp.Data {
			idx := int(data.Index)
			if idx < 0 || idx >= len(embeddings) {
				idx = i
			}
			embeddings[idx] = data.Embedding
		}

		return &cradle.EmbeddingResult{
			Embeddings: embeddings,
			Usage: cradle.Usage{
				PromptTokens: int(resp.Usage.PromptTokens),
				TotalTokens:  int(resp.Usage.TotalTokens),
			},
		}, nil
	})
}
