package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaClient talks to the native Ollama chat API.
type OllamaClient struct {
	client *api.Client
	model  string
}

var _ Generator = (*OllamaClient)(nil)

// NewOllama creates an Ollama client. A trailing /v1 on the base URL is
// removed since the native API lives at the root.
func NewOllama(cfg Config) (*OllamaClient, error) {
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultOllamaBaseURL
	}
	base = strings.TrimSuffix(strings.TrimSuffix(base, "/"), "/v1")

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("llm: parse ollama base url %q: %w", base, err)
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &OllamaClient{
		client: api.NewClient(u, httpClient),
		model:  cfg.Model,
	}, nil
}

// Generate sends one non-streaming chat request.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	params = params.withDefaults()

	messages := make([]api.Message, 0, 2)
	if params.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: params.System})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": params.Temperature,
			"num_predict": params.MaxTokens,
		},
	}
	if params.Schema != nil {
		req.Format = params.Schema.Definition
	}

	var content strings.Builder
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		content.WriteString(r.Message.Content)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &UpstreamError{Provider: ProviderOllama, Status: ollamaStatus(err), Err: err}
	}

	out := content.String()
	if strings.TrimSpace(out) == "" {
		return "", &UpstreamError{Provider: ProviderOllama, Err: ErrEmptyResponse}
	}
	return out, nil
}

func ollamaStatus(err error) int {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// String identifies the client in logs.
func (c *OllamaClient) String() string {
	return fmt.Sprintf("%s/%s", ProviderOllama, c.model)
}
