package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Defaults applied by New.
const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 2048
)

// Params tunes a single generation.
type Params struct {
	// System is an optional system instruction.
	System string

	// Temperature controls sampling. Zero selects DefaultTemperature.
	Temperature float32

	// MaxTokens bounds the reply length. Zero selects DefaultMaxTokens.
	MaxTokens int

	// Schema, when set, requests structured JSON output matching the schema.
	Schema *Schema
}

// Schema is a named JSON schema for structured output.
type Schema struct {
	Name       string
	Definition json.RawMessage
	Strict     bool
}

func (p Params) withDefaults() Params {
	if p.Temperature <= 0 {
		p.Temperature = DefaultTemperature
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}
	return p
}

// Generator produces text from a prompt.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: Generate must honor cancellation and deadlines.
//   - Errors: upstream failures match ErrUpstream.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, params Params) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	return f(ctx, prompt, params)
}

// Config selects and configures a Generator.
type Config struct {
	// Provider is "openai" or "ollama".
	Provider string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// APIKey authenticates against OpenAI-compatible services.
	APIKey string

	// Model is the model name sent upstream.
	Model string

	// Timeout bounds the HTTP transport. Per-attempt budgets are enforced
	// by the caller.
	Timeout time.Duration
}

// New creates the Generator for cfg.Provider.
func New(cfg Config) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg)
	case ProviderOllama:
		return NewOllama(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
