// Package llm provides an OpenAI-compatible chat client used to translate and
// explain subtitle sentences.
//
// # Explanation Logic
//
// Each sentence is sent as the user message under a system prompt naming the
// target language. The model must answer with a JSON object holding the
// translation and a Markdown grammar explanation.
//
// # Configuration
//
// Requires model, and optionally api_key, base_url, referer, title, timeout.
// The Authorization header is omitted when api_key is empty so local servers
// such as Ollama or LM Studio can be used directly.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Explain: translation plus grammar explanation for one sentence.
// Client.HealthCheck: verify endpoint and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx, network timeouts and blank replies
// with doubling backoff (base 1s, max 10s, up to 5 attempts by default). A
// Retry-After header overrides the backoff. Other 4xx answers fail at once and
// context cancellation aborts retries immediately.
package llm
