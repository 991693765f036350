// Package cradle is the LLM completion layer of a game-playing agent.
//
// It gives the agent one uniform way to ask a large language model what to do
// next, regardless of which vendor answers. The package defines the request and
// result types shared by every backend and the [Provider] capability they
// implement.
//
// # Core Types
//
//   - [Message] and [Part]: a chat turn made of ordered text and opaque parts
//   - [CompletionRequest] and [CompletionResult]: the uniform request/answer pair
//   - [Provider]: Complete, CompleteAsync, EstimateTokenCount, BuildPrompt
//   - [EmbeddingProvider]: vector embeddings for text
//   - [Bridge]: bounded background workers behind every CompleteAsync
//
// Use the [github.com/spetersoncode/cradle/factory] package to construct the
// configured provider pair once at process start.
//
// # Basic Usage
//
//	f := factory.New(factory.WithLogger(log))
//	llm, embedder, err := f.Create(ctx, "./conf/hybrid_config.json", "./conf/openai_config.json")
//	if err != nil {
//	    log.Error(err, "unable to create providers")
//	    os.Exit(1)
//	}
//
//	req := cradle.NewRequest([]cradle.Message{
//	    cradle.NewMessage(cradle.RoleSystem, "You control a character in an open-world game."),
//	    {Role: cradle.RoleUser, Parts: []cradle.Part{
//	        cradle.NewTextPart("What should the character do next?"),
//	        cradle.NewImageBase64Part(screenshot, "image/jpeg"),
//	    }},
//	}, cradle.WithMaxTokens(512))
//
//	res, err := llm.Complete(ctx, req)
//
// # Async Callers
//
// Callers that must not block use CompleteAsync and wait on the returned channel:
//
//	res, err := cradle.Await(llm.CompleteAsync(ctx, req))
//
// # Errors
//
// Configuration problems are reported as [*ConfigError] (matching
// [ErrConfiguration]) before any network activity. Using a provider before it is
// initialized yields [ErrUninitializedProvider]. Backend failures are retried with
// a constant interval and the last error is returned unchanged.
package cradle
