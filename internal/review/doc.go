// Package review contains the advisory contract used by the reconciliation
// engine: the Finding and Severity types, the AnalyzeRequest handed to the
// advisory service, and the Advisor that turns an LLM provider into an
// Analyzer.
//
// The Advisor assembles a per-file prompt (reviewer intro in the configured
// language, review rules, detected file type, full content, diff and the
// list of changed lines), redacts secrets before anything leaves the
// process, consults the on-disk response cache, and parses the JSON array
// the model returns. Output that cannot be parsed at all is reported as a
// *MalformedOutputError so the caller can treat the file as having no
// findings.
//
// Rules (rules.go) are opaque text resolved once per run from inline
// content, a project rules file, a configured rules file, or a built-in
// default.
package review
