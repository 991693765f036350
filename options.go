package cradle

// Request defaults used by NewRequest.
const (
	DefaultTemperature = 0.0
	DefaultMaxTokens   = 1024
)

// Option is a functional option for configuring completion requests.
type Option func(*CompletionRequest)

// WithModel overrides the provider's configured model for one request.
func WithModel(model string) Option {
	return func(r *CompletionRequest) {
		r.Model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(r *CompletionRequest) {
		r.Temperature = t
	}
}

// WithSeed sets the sampling seed. Backends without seed support ignore it.
func WithSeed(seed int) Option {
	return func(r *CompletionRequest) {
		r.Seed = &seed
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(r *CompletionRequest) {
		r.MaxTokens = n
	}
}

// NewRequest builds a request with defaults, then applies opts.
func NewRequest(messages []Message, opts ...Option) *CompletionRequest {
	r := &CompletionRequest{
		Messages:    messages,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
