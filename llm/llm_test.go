package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func chatCompletionJSON(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

func TestNew_Providers(t *testing.T) {
	if _, err := New(Config{Provider: "openai", APIKey: "k", Model: "m"}); err != nil {
		t.Errorf("New(openai) error = %v", err)
	}
	if _, err := New(Config{Provider: "ollama", Model: "m"}); err != nil {
		t.Errorf("New(ollama) error = %v", err)
	}
	if _, err := New(Config{Provider: "bard", Model: "m"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("New(bard) error = %v, want ErrUnknownProvider", err)
	}
	if _, err := New(Config{Provider: "openai", Model: "m"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("New() without key error = %v, want ErrMissingAPIKey", err)
	}
	if _, err := New(Config{Provider: "openai", Model: "m", BaseURL: "http://localhost:8000/v1"}); err != nil {
		t.Errorf("New() keyless with base url error = %v", err)
	}
	if _, err := New(Config{Provider: "ollama"}); !errors.Is(err, ErrMissingModel) {
		t.Errorf("New() without model error = %v, want ErrMissingModel", err)
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s, want */chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionJSON("<h2>Hello</h2>"))
	}))
	defer srv.Close()

	c, err := NewOpenAI(Config{BaseURL: srv.URL + "/v1", APIKey: "test-key", Model: "test-model"})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}

	out, err := c.Generate(context.Background(), "teach me", Params{
		System: "be brief",
		Schema: &Schema{Name: "meta", Definition: json.RawMessage(`{"type":"object"}`), Strict: true},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "<h2>Hello</h2>" {
		t.Errorf("Generate() = %q", out)
	}

	if got["model"] != "test-model" {
		t.Errorf("model = %v, want test-model", got["model"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want system and user", msgs)
	}
	rf, _ := got["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format.type = %v, want json_schema", rf["type"])
	}
}

func TestOpenAIClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":{"message":"bad gateway","type":"server_error"}}`)
	}))
	defer srv.Close()

	c, _ := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := c.Generate(context.Background(), "prompt", Params{})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("Generate() error = %v, want ErrUpstream", err)
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Status != http.StatusBadGateway {
		t.Errorf("UpstreamError = %+v, want status 502", ue)
	}
	if !IsRetryable(err) {
		t.Error("5xx should be retryable")
	}
}

func TestOpenAIClient_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionJSON("   "))
	}))
	defer srv.Close()

	c, _ := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := c.Generate(context.Background(), "prompt", Params{})
	if !errors.Is(err, ErrEmptyResponse) || !errors.Is(err, ErrUpstream) {
		t.Errorf("Generate() error = %v, want ErrEmptyResponse and ErrUpstream", err)
	}
}

func TestOpenAIClient_EmptyPrompt(t *testing.T) {
	c, _ := NewOpenAI(Config{APIKey: "k", Model: "m"})
	if _, err := c.Generate(context.Background(), "  ", Params{}); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("Generate() error = %v, want ErrEmptyPrompt", err)
	}
}

func TestOpenAIClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "prompt", Params{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Generate() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestOllamaClient_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, want /api/chat", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"llama3","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"{\"title\":\"AI\"}"},"done":true}`+"\n")
	}))
	defer srv.Close()

	c, err := NewOllama(Config{BaseURL: srv.URL + "/v1", Model: "llama3"})
	if err != nil {
		t.Fatalf("NewOllama() error = %v", err)
	}

	out, err := c.Generate(context.Background(), "describe", Params{
		Schema: &Schema{Name: "meta", Definition: json.RawMessage(`{"type":"object"}`)},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != `{"title":"AI"}` {
		t.Errorf("Generate() = %q", out)
	}
	if got["stream"] != false {
		t.Errorf("stream = %v, want false", got["stream"])
	}
	if format, ok := got["format"].(map[string]any); !ok || format["type"] != "object" {
		t.Errorf("format = %v, want schema object", got["format"])
	}
}

func TestOllamaClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model not found"}`)
	}))
	defer srv.Close()

	c, _ := NewOllama(Config{BaseURL: srv.URL, Model: "missing"})
	_, err := c.Generate(context.Background(), "prompt", Params{})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("Generate() error = %v, want ErrUpstream", err)
	}
	if IsRetryable(err) {
		t.Error("404 should not be retryable")
	}
}

func TestUpstreamError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, true},
		{400, false},
		{401, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		e := &UpstreamError{Provider: "openai", Status: tt.status, Err: errors.New("x")}
		if got := e.Retryable(); got != tt.want {
			t.Errorf("Retryable() for %d = %v, want %v", tt.status, got, tt.want)
		}
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true")
	}
}

func TestInstrumented_Delegates(t *testing.T) {
	inner := GeneratorFunc(func(ctx context.Context, prompt string, params Params) (string, error) {
		return "echo: " + prompt, nil
	})
	g := NewInstrumented(inner, nil, "fake")

	out, err := g.Generate(context.Background(), "hi", Params{})
	if err != nil || out != "echo: hi" {
		t.Errorf("Generate() = %q, %v", out, err)
	}
}
