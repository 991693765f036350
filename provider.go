package cradle

import "context"

// Family identifies a provider family.
type Family string

// String returns the family identifier.
func (f Family) String() string { return string(f) }

// Supported provider families.
const (
	FamilyOpenAI Family = "openai"
	FamilyClaude Family = "claude"
	FamilyGemini Family = "gemini"
	FamilyHybrid Family = "hybrid"
)

// Provider is the capability every completion backend implements.
// Concrete providers must be initialized once before any of these methods is used;
// calling them earlier fails with ErrUninitializedProvider.
type Provider interface {
	// Complete sends the request and blocks until the backend answers or the
	// retry policy is exhausted.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// CompleteAsync runs Complete on a worker and returns immediately.
	// The channel receives exactly one AsyncResult and is then closed.
	CompleteAsync(ctx context.Context, req *CompletionRequest) <-chan AsyncResult

	// EstimateTokenCount returns a best-effort prompt token count.
	EstimateTokenCount(messages []Message) (int, error)

	// BuildPrompt substitutes params into a prompt template.
	BuildPrompt(template string, params map[string]any) (string, error)
}
