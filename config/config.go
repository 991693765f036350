// Package config loads and validates provider configuration files.
//
// A config file is a JSON object (or YAML, chosen by the .yaml/.yml extension)
// such as:
//
//	{"key_var": "GEMINI_API_KEY", "comp_model": "gemini-1.5-pro"}
//
// key_var names the environment variable that holds the API key; the key itself
// never appears in the file. Every loader validates eagerly so that a missing
// key is reported before any network activity.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spetersoncode/cradle"
)

// DefaultEmbeddingModel is used when an OpenAI config omits emb_model.
const DefaultEmbeddingModel = "text-embedding-ada-002"

// Retry overrides the retry policy of a provider.
// Zero values keep the defaults (5 attempts, 10 seconds apart).
type Retry struct {
	MaxAttempts     int     `koanf:"max_attempts"`
	IntervalSeconds float64 `koanf:"interval_seconds"`
}

// Gemini configures the Gemini-backed provider.
type Gemini struct {
	KeyVar    string `koanf:"key_var"`
	CompModel string `koanf:"comp_model"`
	BaseURL   string `koanf:"base_url"`
	Retry     Retry  `koanf:"retry"`

	// Source is the file the config was loaded from, for error messages.
	Source string `koanf:"-"`
}

// Validate checks the required keys.
func (c *Gemini) Validate() error {
	return requireKeys(c.Source, c.KeyVar, c.CompModel)
}

// OpenAI configures the OpenAI-backed provider and its embedder.
type OpenAI struct {
	KeyVar    string `koanf:"key_var"`
	CompModel string `koanf:"comp_model"`
	EmbModel  string `koanf:"emb_model"`
	BaseURL   string `koanf:"base_url"`
	Retry     Retry  `koanf:"retry"`

	Source string `koanf:"-"`
}

// Validate checks the required keys and fills the embedding model default.
func (c *OpenAI) Validate() error {
	if err := requireKeys(c.Source, c.KeyVar, c.CompModel); err != nil {
		return err
	}
	if c.EmbModel == "" {
		c.EmbModel = DefaultEmbeddingModel
	}
	return nil
}

// Claude configures the Claude-backed provider.
type Claude struct {
	KeyVar    string `koanf:"key_var"`
	CompModel string `koanf:"comp_model"`
	BaseURL   string `koanf:"base_url"`
	Retry     Retry  `koanf:"retry"`

	Source string `koanf:"-"`
}

// Validate checks the required keys.
func (c *Claude) Validate() error {
	return requireKeys(c.Source, c.KeyVar, c.CompModel)
}

// Hybrid pairs the two sub-configurations of the routing provider.
type Hybrid struct {
	Gemini Gemini
	OpenAI OpenAI

	Source string
}

// Hybrid config keys. Each holds a path to a sub-config or the sub-config itself.
const (
	KeyGeminiConfig = "gemini_cfg"
	KeyOpenAIConfig = "openai_cfg"
)

// LoadGemini reads and validates a Gemini config file.
func LoadGemini(path string) (*Gemini, error) {
	k, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return geminiFrom(k, path)
}

// LoadOpenAI reads and validates an OpenAI config file.
func LoadOpenAI(path string) (*OpenAI, error) {
	k, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return openAIFrom(k, path)
}

// LoadClaude reads and validates a Claude config file.
func LoadClaude(path string) (*Claude, error) {
	k, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Claude
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, &cradle.ConfigError{Source: path, Err: err}
	}
	cfg.Source = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadHybrid reads a hybrid config file. gemini_cfg and openai_cfg may each be
// a path to another config file or an inline object. Paths are used as given,
// relative to the working directory.
func LoadHybrid(path string) (*Hybrid, error) {
	k, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return hybridFrom(k, path)
}

// ParseHybrid reads a hybrid config from a JSON object held in memory.
func ParseHybrid(data []byte) (*Hybrid, error) {
	m, err := json.Parser().Unmarshal(data)
	if err != nil {
		return nil, &cradle.ConfigError{Source: "inline", Err: err}
	}
	return HybridFromMap(m)
}

// HybridFromMap builds a hybrid config from an already decoded object.
func HybridFromMap(m map[string]any) (*Hybrid, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
		return nil, &cradle.ConfigError{Source: "inline", Err: err}
	}
	return hybridFrom(k, "inline")
}

func hybridFrom(k *koanf.Koanf, source string) (*Hybrid, error) {
	gemK, gemSrc, err := nested(k, KeyGeminiConfig, source)
	if err != nil {
		return nil, err
	}
	gemini, err := geminiFrom(gemK, gemSrc)
	if err != nil {
		return nil, err
	}

	oaiK, oaiSrc, err := nested(k, KeyOpenAIConfig, source)
	if err != nil {
		return nil, err
	}
	openai, err := openAIFrom(oaiK, oaiSrc)
	if err != nil {
		return nil, err
	}

	return &Hybrid{Gemini: *gemini, OpenAI: *openai, Source: source}, nil
}

// nested resolves a hybrid sub-config key to its own koanf instance.
func nested(k *koanf.Koanf, key, source string) (*koanf.Koanf, string, error) {
	switch v := k.Get(key).(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, "", &cradle.ConfigError{Source: source, Key: key}
		}
		sub, err := loadFile(v)
		return sub, v, err
	case map[string]any:
		return k.Cut(key), source + "#" + key, nil
	case nil:
		return nil, "", &cradle.ConfigError{Source: source, Key: key}
	default:
		return nil, "", &cradle.ConfigError{
			Source: source,
			Key:    key,
			Err:    fmt.Errorf("expected a path or an object, got %T", v),
		}
	}
}

func geminiFrom(k *koanf.Koanf, source string) (*Gemini, error) {
	var cfg Gemini
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, &cradle.ConfigError{Source: source, Err: err}
	}
	cfg.Source = source
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func openAIFrom(k *koanf.Koanf, source string) (*OpenAI, error) {
	var cfg OpenAI
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, &cradle.ConfigError{Source: source, Err: err}
	}
	cfg.Source = source
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, &cradle.ConfigError{Source: path, Err: err}
	}
	return k, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return json.Parser()
	}
}

func requireKeys(source, keyVar, compModel string) error {
	if strings.TrimSpace(keyVar) == "" {
		return &cradle.ConfigError{Source: source, Key: "key_var"}
	}
	if strings.TrimSpace(compModel) == "" {
		return &cradle.ConfigError{Source: source, Key: "comp_model"}
	}
	return nil
}
