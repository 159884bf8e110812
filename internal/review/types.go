package review

import (
	"context"
	"fmt"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Finding is a single issue reported by the advisory service for one line
// of the new version of a file.
type Finding struct {
	Line       int      `json:"line"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// AnalyzeRequest is everything the advisory service sees for one file.
type AnalyzeRequest struct {
	Path          string
	Content       string
	Diff          string
	EligibleLines []int
	Rules         string
}

// Analyzer produces findings for one file.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) ([]Finding, error)
}

// MalformedOutputError reports advisory output that is not a JSON array.
type MalformedOutputError struct {
	Excerpt string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed advisory output: %v (excerpt: %q)", e.Err, e.Excerpt)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }
