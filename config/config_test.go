package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spetersoncode/cradle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadGemini(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gemini.json", `{"key_var": "GEMINI_API_KEY", "comp_model": "gemini-1.5-pro"}`)

	cfg, err := LoadGemini(path)
	require.NoError(t, err)
	assert.Equal(t, "GEMINI_API_KEY", cfg.KeyVar)
	assert.Equal(t, "gemini-1.5-pro", cfg.CompModel)
	assert.Equal(t, path, cfg.Source)
	assert.Zero(t, cfg.Retry)
}

func TestLoadGeminiMissingCompModel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gemini.json", `{"key_var": "GEMINI_API_KEY"}`)

	cfg, err := LoadGemini(path)
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, cradle.ErrConfiguration)

	var cfgErr *cradle.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "comp_model", cfgErr.Key)
	assert.Contains(t, err.Error(), "comp_model")
}

func TestLoadGeminiMissingKeyVar(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gemini.json", `{"comp_model": "gemini-1.5-pro", "key_var": "  "}`)

	_, err := LoadGemini(path)
	var cfgErr *cradle.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "key_var", cfgErr.Key)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadGemini(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, cradle.IsConfigError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{"key_var": `)
	_, err := LoadClaude(path)
	assert.True(t, cradle.IsConfigError(err))
}

func TestLoadOpenAIDefaultsEmbeddingModel(t *testing.T) {
	path := writeFile(t, t.TempDir(), "openai.json", `{"key_var": "OA_KEY", "comp_model": "gpt-4o"}`)

	cfg, err := LoadOpenAI(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbModel)
}

func TestLoadOpenAIWithRetryAndBaseURL(t *testing.T) {
	path := writeFile(t, t.TempDir(), "openai.json", `{
		"key_var": "OA_KEY",
		"comp_model": "gpt-4o",
		"emb_model": "text-embedding-3-small",
		"base_url": "http://localhost:9999/v1",
		"retry": {"max_attempts": 3, "interval_seconds": 0.5}
	}`)

	cfg, err := LoadOpenAI(path)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbModel)
	assert.Equal(t, "http://localhost:9999/v1", cfg.BaseURL)
	assert.Equal(t, Retry{MaxAttempts: 3, IntervalSeconds: 0.5}, cfg.Retry)
}

func TestLoadClaudeYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "claude.yaml", "key_var: ANTHROPIC_API_KEY\ncomp_model: claude-3-5-sonnet-latest\n")

	cfg, err := LoadClaude(path)
	require.NoError(t, err)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.KeyVar)
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.CompModel)
}

func TestLoadHybridWithPaths(t *testing.T) {
	dir := t.TempDir()
	gemini := writeFile(t, dir, "gemini.json", `{"key_var": "G_KEY", "comp_model": "gemini-1.5-pro"}`)
	openai := writeFile(t, dir, "openai.json", `{"key_var": "O_KEY", "comp_model": "gpt-4o"}`)
	hybrid := writeFile(t, dir, "hybrid.json",
		`{"gemini_cfg": "`+filepath.ToSlash(gemini)+`", "openai_cfg": "`+filepath.ToSlash(openai)+`"}`)

	cfg, err := LoadHybrid(hybrid)
	require.NoError(t, err)
	assert.Equal(t, "G_KEY", cfg.Gemini.KeyVar)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.CompModel)
	assert.Equal(t, DefaultEmbeddingModel, cfg.OpenAI.EmbModel)
	assert.Equal(t, hybrid, cfg.Source)
}

func TestLoadHybridInline(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hybrid.json", `{
		"gemini_cfg": {"key_var": "G_KEY", "comp_model": "gemini-1.5-flash"},
		"openai_cfg": {"key_var": "O_KEY", "comp_model": "gpt-4o-mini"}
	}`)

	cfg, err := LoadHybrid(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.CompModel)
	assert.Equal(t, "O_KEY", cfg.OpenAI.KeyVar)
}

func TestLoadHybridMissingSubConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hybrid.json", `{"gemini_cfg": {"key_var": "G", "comp_model": "m"}}`)

	_, err := LoadHybrid(path)
	var cfgErr *cradle.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, KeyOpenAIConfig, cfgErr.Key)
}

func TestLoadHybridInvalidNested(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hybrid.json", `{
		"gemini_cfg": {"key_var": "G"},
		"openai_cfg": {"key_var": "O", "comp_model": "gpt-4o"}
	}`)

	_, err := LoadHybrid(path)
	var cfgErr *cradle.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "comp_model", cfgErr.Key)
}

func TestLoadHybridWrongType(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hybrid.json", `{"gemini_cfg": 42, "openai_cfg": "x.json"}`)

	_, err := LoadHybrid(path)
	var cfgErr *cradle.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, KeyGeminiConfig, cfgErr.Key)
	assert.Error(t, cfgErr.Err)
}

func TestHybridFromMap(t *testing.T) {
	cfg, err := HybridFromMap(map[string]any{
		"gemini_cfg": map[string]any{"key_var": "G", "comp_model": "gemini-1.5-pro"},
		"openai_cfg": map[string]any{"key_var": "O", "comp_model": "gpt-4o", "emb_model": "e"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.CompModel)
	assert.Equal(t, "e", cfg.OpenAI.EmbModel)
}

func TestParseHybrid(t *testing.T) {
	cfg, err := ParseHybrid([]byte(`{
		"gemini_cfg": {"key_var": "G", "comp_model": "gemini-1.5-pro"},
		"openai_cfg": {"key_var": "O", "comp_model": "gpt-4o"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "inline", cfg.Source)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.CompModel)
	assert.Equal(t, DefaultEmbeddingModel, cfg.OpenAI.EmbModel)
}

func TestParseHybridMalformed(t *testing.T) {
	_, err := ParseHybrid([]byte(`{"gemini_cfg": `))
	assert.True(t, cradle.IsConfigError(err))
}
