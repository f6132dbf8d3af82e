// Package llm provides clients for external generative-text services.
//
// A Generator turns a prompt into text. Two implementations are provided: an
// OpenAI-compatible chat client (which also serves OpenRouter and other
// compatible gateways) and a native Ollama client. Both support a JSON
// schema for structured output.
//
// Clients make exactly one upstream call per Generate. Retries, timeouts and
// circuit breaking are the caller's concern (see package resilience).
// Every upstream failure matches ErrUpstream via errors.Is.
package llm
