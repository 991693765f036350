package provider

import (
	"context"
	"errors"
	"sync"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/spetersoncode/cradle"
	"github.com/spetersoncode/cradle/config"
	"github.com/spetersoncode/cradle/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeOnce(t *testing.T) {
	b := New(cradle.FamilyGemini)
	builds := 0
	build := func() error {
		builds++
		return nil
	}

	require.NoError(t, b.Initialize(config.Retry{}, build))
	assert.ErrorIs(t, b.Initialize(config.Retry{}, build), cradle.ErrAlreadyInitialized)
	assert.Equal(t, 1, builds)
	assert.True(t, b.Ready())
}

func TestInitializeConcurrent(t *testing.T) {
	b := New(cradle.FamilyGemini)
	var builds atomic.Int32
	var wg sync.WaitGroup
	var failures atomic.Int32

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Initialize(config.Retry{}, func() error {
				builds.Add(1)
				return nil
			})
			if errors.Is(err, cradle.ErrAlreadyInitialized) {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, int32(7), failures.Load())
}

func TestInitializeFailureLeavesUninitialized(t *testing.T) {
	b := New(cradle.FamilyOpenAI)
	boom := errors.New("boom")

	assert.ErrorIs(t, b.Initialize(config.Retry{}, func() error { return boom }), boom)
	assert.ErrorIs(t, b.CheckReady(), cradle.ErrUninitializedProvider)

	require.NoError(t, b.Initialize(config.Retry{}, func() error { return nil }))
	assert.NoError(t, b.CheckReady())
}

func TestRetryPolicy(t *testing.T) {
	assert.Equal(t, retry.DefaultConfig(), RetryPolicy(config.Retry{}))
	assert.Equal(t,
		retry.Config{MaxAttempts: 2, Interval: 1500 * time.Millisecond},
		RetryPolicy(config.Retry{MaxAttempts: 2, IntervalSeconds: 1.5}),
	)
}

func TestInitializeAppliesConfigRetry(t *testing.T) {
	b := New(cradle.FamilyClaude)
	require.NoError(t, b.Initialize(config.Retry{MaxAttempts: 3}, func() error { return nil }))
	assert.Equal(t, 3, b.RetryConfig().MaxAttempts)
	assert.Equal(t, retry.DefaultInterval, b.RetryConfig().Interval)
}

func TestWithRetryOverridesConfig(t *testing.T) {
	override := retry.Config{MaxAttempts: 1, Interval: time.Millisecond}
	b := New(cradle.FamilyClaude, WithRetry(override))
	require.NoError(t, b.Initialize(config.Retry{MaxAttempts: 9}, func() error { return nil }))
	assert.Equal(t, override, b.RetryConfig())
}

func TestCallRetriesNilResult(t *testing.T) {
	b := New(cradle.FamilyGemini, WithRetry(retry.Config{MaxAttempts: 3, Interval: time.Millisecond}))
	calls := 0

	res, err := Call(context.Background(), b, "complete", func() (*cradle.CompletionResult, error) {
		calls++
		if calls < 3 {
			return nil, nil
		}
		return &cradle.CompletionResult{Text: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 3, calls)
}

func TestCompleteAsyncUninitialized(t *testing.T) {
	b := New(cradle.FamilyGemini)
	called := false
	fn := func(ctx context.Context, req *cradle.CompletionRequest) (*cradle.CompletionResult, error) {
		called = true
		return nil, nil
	}

	_, err := cradle.Await(b.CompleteAsync(context.Background(), fn, &cradle.CompletionRequest{}))
	assert.ErrorIs(t, err, cradle.ErrUninitializedProvider)
	assert.False(t, called)
}

func TestBuildPrompt(t *testing.T) {
	b := New(cradle.FamilyGemini)
	_, err := b.BuildPrompt("<$x$>", nil)
	assert.ErrorIs(t, err, cradle.ErrUninitializedProvider)

	require.NoError(t, b.Initialize(config.Retry{}, func() error { return nil }))
	out, err := b.BuildPrompt("go <$dir$>", map[string]any{"dir": "west"})
	require.NoError(t, err)
	assert.Equal(t, "go west", out)
}

func TestBuildPromptLogsMissingParams(t *testing.T) {
	var lines []string
	log := funcr.New(func(prefix, args string) { lines = append(lines, args) }, funcr.Options{Verbosity: 1})
	b := New(cradle.FamilyClaude, WithLogger(log))
	require.NoError(t, b.Initialize(config.Retry{}, func() error { return nil }))

	out, err := b.BuildPrompt("<$task$> near <$place$>", map[string]any{"task": "rest"})
	require.NoError(t, err)
	assert.Equal(t, "rest near <$place$>", out)

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "prompt placeholders without params")
	assert.Contains(t, joined, `"place"`)
	assert.NotContains(t, joined, `"task"`)
}

func TestAPIKey(t *testing.T) {
	t.Setenv("CRADLE_TEST_KEY", "secret")
	key, err := APIKey("cfg.json", "CRADLE_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, "secret", key)

	t.Setenv("CRADLE_TEST_KEY", "   ")
	_, err = APIKey("cfg.json", "CRADLE_TEST_KEY")
	var cfgErr *cradle.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "CRADLE_TEST_KEY", cfgErr.EnvVar)
	assert.Equal(t, "cfg.json", cfgErr.Source)
}

func TestModel(t *testing.T) {
	assert.Equal(t, "base", Model(&cradle.CompletionRequest{}, "base"))
	assert.Equal(t, "override", Model(&cradle.CompletionRequest{Model: "override"}, "base"))
}
