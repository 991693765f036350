// Command cradle sends one completion request through the configured provider.
//
// Usage:
//
//	cradle -llm-config ./conf/hybrid_config.json -embed-config ./conf/openai_config.json \
//	    -system "You control a character in an open-world game." \
//	    -prompt "What should the character do next?" -image screenshot.jpg
//
// API keys are read from the environment variables named in the config files;
// a .env file in the working directory is loaded first.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/zapr"
	"github.com/joho/godotenv"
	"github.com/spetersoncode/cradle"
	"github.com/spetersoncode/cradle/factory"
	"go.uber.org/zap"
)

// imageList collects repeated -image flags.
type imageList []string

func (l *imageList) String() string { return strings.Join(*l, ",") }

func (l *imageList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// errUsage marks a command line mistake; main exits with status 2 for it.
var errUsage = errors.New("usage error")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "cradle: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run parses args and sends one request. Deferred cleanup such as the logger
// flush runs before main decides the exit status.
func run(args []string) error {
	var llmConfig string
	var embedConfig string
	var userPrompt string
	var systemPrompt string
	var images imageList
	var async bool
	var estimate bool
	var verbose bool
	var noRetry bool
	var workers int

	flags := flag.NewFlagSet("cradle", flag.ContinueOnError)
	flags.StringVar(&llmConfig, "llm-config", "./conf/hybrid_config.json", "Path to the completion provider config, or an inline hybrid JSON object.")
	flags.StringVar(&embedConfig, "embed-config", "./conf/openai_config.json", "Path to the OpenAI embedding provider config.")
	flags.StringVar(&userPrompt, "prompt", "", "User prompt text.")
	flags.StringVar(&systemPrompt, "system", "", "Optional system prompt.")
	flags.Var(&images, "image", "Image file to attach to the user message (repeatable).")
	flags.BoolVar(&async, "async", false, "Use the non-blocking completion path.")
	flags.BoolVar(&estimate, "estimate", false, "Print the estimated prompt token count and exit.")
	flags.BoolVar(&verbose, "verbose", false, "Log retry attempts and routing decisions.")
	flags.BoolVar(&noRetry, "no-retry", false, "Call the backend once instead of retrying failures.")
	flags.IntVar(&workers, "workers", cradle.DefaultAsyncWorkers, "Number of async worker slots.")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if userPrompt == "" {
		return fmt.Errorf("%w: -prompt is required", errUsage)
	}

	// A missing .env file is fine; keys may already be in the environment.
	_ = godotenv.Load()

	zapCfg := zap.NewDevelopmentConfig()
	if !verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapLog, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = zapLog.Sync() }()
	log := zapr.NewLogger(zapLog)

	messages, err := buildMessages(systemPrompt, userPrompt, images)
	if err != nil {
		return err
	}

	opts := []factory.Option{factory.WithLogger(log), factory.WithAsyncWorkers(workers)}
	if noRetry {
		opts = append(opts, factory.WithoutRetry())
	}

	ctx := context.Background()
	llm, _, err := factory.New(opts...).Create(ctx, llmConfig, embedConfig)
	if err != nil {
		return fmt.Errorf("create providers: %w", err)
	}

	if estimate {
		n, err := llm.EstimateTokenCount(messages)
		if err != nil {
			return fmt.Errorf("estimate tokens: %w", err)
		}
		fmt.Println(n)
		return nil
	}

	req := cradle.NewRequest(messages)
	var res *cradle.CompletionResult
	if async {
		res, err = cradle.Await(llm.CompleteAsync(ctx, req))
	} else {
		res, err = llm.Complete(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("complete: %w", err)
	}

	fmt.Println(res.Text)
	fmt.Fprintf(os.Stderr, "[backend: %s, tokens: %d prompt, %d completion, %d total]\n",
		res.Backend, res.Usage.PromptTokens, res.Usage.CompletionTokens, res.Usage.TotalTokens)
	return nil
}

func buildMessages(system, user string, images []string) ([]cradle.Message, error) {
	var messages []cradle.Message
	if system != "" {
		messages = append(messages, cradle.NewMessage(cradle.RoleSystem, system))
	}

	parts := []cradle.Part{cradle.NewTextPart(user)}
	for _, path := range images {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", path, err)
		}
		parts = append(parts, cradle.NewImageBase64Part(base64.StdEncoding.EncodeToString(data), mimeType(path, data)))
	}
	messages = append(messages, cradle.Message{Role: cradle.RoleUser, Parts: parts})
	return messages, nil
}

func mimeType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return http.DetectContentType(data)
}
