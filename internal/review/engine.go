package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/mreview/internal/cache"
	"github.com/dshills/mreview/internal/providers"
	"github.com/dshills/mreview/internal/redact"
)

// ExcerptSize bounds the advisory output quoted in a MalformedOutputError.
const ExcerptSize = 500

// rawFinding is the JSON structure returned by the LLM.
type rawFinding struct {
	Line       int    `json:"line"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// Options configures an Advisor.
type Options struct {
	Language    string
	MaxTokens   int
	Temperature float64
}

// Advisor implements Analyzer on top of an LLM provider.
type Advisor struct {
	reviewer providers.Reviewer
	cache    *cache.Cache
	redactor *redact.Redactor
	opts     Options
}

// NewAdvisor creates an Advisor. A nil cache or redactor disables caching
// or redaction respectively.
func NewAdvisor(r providers.Reviewer, c *cache.Cache, rd *redact.Redactor, opts Options) *Advisor {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	if opts.Language == "" {
		opts.Language = LanguageEnglish
	}
	return &Advisor{reviewer: r, cache: c, redactor: rd, opts: opts}
}

// Analyze asks the provider for findings on one file. Files covered by a
// redaction path policy are never sent and yield no findings.
func (a *Advisor) Analyze(ctx context.Context, req AnalyzeRequest) ([]Finding, error) {
	if a.redactor != nil {
		if a.redactor.PathRedacted(req.Path) {
			return nil, nil
		}
		req.Content = a.redactor.Text(req.Content)
		req.Diff = a.redactor.Text(req.Diff)
	}

	system := SystemPrompt(a.opts.Language)
	user := BuildUserPrompt(req, a.opts.Language)
	key := cache.BuildCacheKey(a.reviewer.Name(), a.reviewer.Model(), system+"\n"+user)

	content, hit := a.cachedResponse(key)
	if !hit {
		resp, err := a.reviewer.Review(ctx, providers.ReviewRequest{
			SystemPrompt: system,
			UserPrompt:   user,
			MaxTokens:    a.opts.MaxTokens,
			Temperature:  a.opts.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("provider review of %s: %w", req.Path, err)
		}
		content = resp.Content
	}

	findings, err := ParseFindings(content)
	if err != nil {
		return nil, &MalformedOutputError{Excerpt: Truncate(content, ExcerptSize), Err: err}
	}

	// Only well-formed responses are cached; a failed write just costs a
	// provider call next time.
	if !hit && a.cache != nil {
		_ = a.cache.Put(key, content)
	}
	return findings, nil
}

func (a *Advisor) cachedResponse(key string) (string, bool) {
	if a.cache == nil {
		return "", false
	}
	return a.cache.Get(key)
}

// ParseFindings decodes the advisory response. The array may be bare,
// wrapped in a markdown code fence, or embedded in prose. Elements that are
// not objects or do not decode are dropped individually.
func ParseFindings(content string) ([]Finding, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(extractArray(content)), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	findings := make([]Finding, 0, len(raw))
	for _, elem := range raw {
		if !isObject(elem) {
			continue
		}
		var r rawFinding
		if err := json.Unmarshal(elem, &r); err != nil {
			continue
		}
		findings = append(findings, Finding{
			Line:       r.Line,
			Severity:   Severity(strings.ToLower(strings.TrimSpace(r.Severity))),
			Message:    strings.TrimSpace(r.Message),
			Suggestion: strings.TrimSpace(r.Suggestion),
		})
	}
	return findings, nil
}

func extractArray(content string) string {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		end := len(lines)
		if end > 1 && strings.TrimSpace(lines[end-1]) == "```" {
			end--
		}
		content = strings.TrimSpace(strings.Join(lines[1:end], "\n"))
	}

	if strings.HasPrefix(content, "[") {
		return content
	}
	start := strings.Index(content, "[")
	stop := strings.LastIndex(content, "]")
	if start >= 0 && stop > start {
		return content[start : stop+1]
	}
	return content
}

func isObject(elem json.RawMessage) bool {
	s := strings.TrimSpace(string(elem))
	return strings.HasPrefix(s, "{")
}

// Truncate returns at most n bytes of s without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
