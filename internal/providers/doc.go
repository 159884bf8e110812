// Package providers implements the Reviewer interface for each supported LLM
// provider on top of the vendor SDKs.
//
// Supported providers: Anthropic (Claude), OpenAI (GPT), Google (Gemini), and
// Ollama / LM Studio through their OpenAI-compatible API.
//
// SDK-level retries are disabled; all providers share retryWithBackoff,
// which retries rate-limit and 5xx responses with exponential back-off and
// never retries authentication failures. Tests point the SDK clients at
// httptest servers through option.WithBaseURL.
//
// Use [New] to obtain a Reviewer by provider name and model string, or
// [Detect] to resolve "auto" from the credentials present in the
// environment.
package providers
