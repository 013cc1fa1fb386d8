// Package providers implements the Completer interface for each supported LLM
// provider.
//
// Supported providers: deployment-scoped chat completion endpoints in the
// Azure OpenAI style (the default), OpenAI, Anthropic (Claude), Google
// (Gemini, through the GenAI SDK), and Ollama / LM Studio for local models.
//
// A Complete call is exactly one request. HTTP statuses are classified into
// authentication, rate-limit and server errors so that callers can decide
// what to retry; [Retry] is a fixed-count loop with no back-off that stops on
// authentication failures. An optional token-bucket limiter throttles
// outbound calls. HTTP clients live in unexported fields so that tests can
// redirect calls to local httptest servers.
//
// Use [New] to obtain a Completer from [Settings].
package providers
