// Package llm provides an OpenAI-compatible chat client (OpenRouter by
// default) for JSON-only completions.
//
// reelcut uses it to rank candidate clips from a timestamped transcript and
// to verify credentials during preflight.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive the JSON content.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode model output, tolerating code fences and prose.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, empty completions and network
// timeouts with exponential backoff (base 1s, max 10s, 4 attempts by
// default). Retry-After headers are honoured up to the max delay. Context
// cancellation aborts retries immediately.
package llm
