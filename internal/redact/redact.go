package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// AWS secret access keys
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// Generic secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// GitLab personal, project, deploy and runner tokens
	regexp.MustCompile(`gl(pat|dt|rt|ptt|cbt)-[A-Za-z0-9_-]{20,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Anthropic API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	// OpenAI API keys
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// Generic long hex strings that look like secrets (32+ chars in an assignment)
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in a single line of text with [REDACTED].
func Secrets(line string) string {
	for _, pat := range secretPatterns {
		line = pat.ReplaceAllLiteralString(line, placeholder)
	}
	return line
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// "**/x" also matches x against the base name at any depth.
		if clean, ok := strings.CutPrefix(pattern, "**/"); ok {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Redactor scrubs text before it is sent to an advisory provider.
type Redactor struct {
	enabled bool
	paths   []string
}

// New creates a Redactor. When enabled is false Text is the identity and
// no path is redacted.
func New(enabled bool, paths []string) *Redactor {
	return &Redactor{enabled: enabled, paths: append([]string(nil), paths...)}
}

// PathRedacted reports whether the whole file is withheld by path policy.
func (r *Redactor) PathRedacted(path string) bool {
	return r.enabled && ShouldRedactPath(path, r.paths)
}

// Text redacts secrets line by line. The number of lines never changes, so
// line numbers in redacted content and diffs still match the originals.
func (r *Redactor) Text(text string) string {
	if !r.enabled || text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = Secrets(line)
	}
	return strings.Join(lines, "\n")
}
