package cradle

import "context"

// EmbeddingProvider defines the interface for embedding providers.
type EmbeddingProvider interface {
	// Embed generates embeddings for the provided texts.
	// Returns an error if texts is empty.
	Embed(ctx context.Context, texts []string) (*EmbeddingResult, error)
}

// EmbeddingResult holds one vector per input text, in input order.
type EmbeddingResult struct {
	Embeddings [][]float64
	Usage      Usage
}
