// Package redact removes secrets from file content and diffs before they are
// sent to an advisory provider.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, and provider-specific tokens (Anthropic, OpenAI, GitHub, Slack).
// Matching is done one line at a time so that redaction never shifts line
// numbers the advisory service refers back to.
//
// Files whose paths match configured glob patterns are withheld entirely.
package redact
