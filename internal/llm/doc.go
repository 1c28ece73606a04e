// Package llm wraps an OpenAI-compatible chat completion API for the caption
// workflows.
//
// Requests go through go-openai; transient failures (rate limits, 5xx,
// timeouts, empty completions) are retried with the shared retry policy.
// DecodeJSON tolerates the usual formatting quirks of model output such as
// code fences and leading prose.
package llm
