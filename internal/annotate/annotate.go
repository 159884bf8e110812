package annotate

import (
	"fmt"
	"strings"

	"github.com/dshills/mreview/internal/review"
)

const (
	// AuthorshipMarker tags every inline comment body produced by Format.
	AuthorshipMarker = "**mreview**"

	// SummaryMarker heads the summary note.
	SummaryMarker = "## mreview"
)

var (
	// Markers written by the CI script mreview replaces, current and older.
	legacyAuthorshipMarkers = []string{"**RejPAL**", "**AI Review**"}
	legacySummaryMarkers    = []string{"## RejPAL", "## 🤖 AI Code Review"}
)

// IsAuthored reports whether body is an inline comment published by mreview,
// including comments carrying a legacy marker.
func IsAuthored(body string) bool {
	if strings.Contains(body, AuthorshipMarker) {
		return true
	}
	for _, m := range legacyAuthorshipMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

// IsSummary reports whether body is an mreview summary note.
func IsSummary(body string) bool {
	if strings.Contains(body, SummaryMarker) {
		return true
	}
	for _, m := range legacySummaryMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

// Glyph returns the marker glyph for a severity.
func Glyph(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "🔴"
	case review.SeverityWarning:
		return "🟡"
	case review.SeveritySuggestion:
		return "💡"
	default:
		return "💬"
	}
}

// Format renders a finding as an inline comment body.
func Format(f review.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", Glyph(f.Severity), AuthorshipMarker, neutralize(f.Message))
	if s := strings.TrimSpace(f.Suggestion); s != "" {
		b.WriteString("\n\n")
		for i, line := range strings.Split(neutralize(s), "\n") {
			if i == 0 {
				fmt.Fprintf(&b, "> 💡 **Suggestion**: %s", line)
				continue
			}
			fmt.Fprintf(&b, "\n> %s", line)
		}
	}
	return b.String()
}

// neutralize strips ownership markers from text that did not originate here,
// so advisory output cannot make a comment look like one of ours (or like
// the summary).
func neutralize(text string) string {
	markers := append([]string{AuthorshipMarker, SummaryMarker}, legacyAuthorshipMarkers...)
	markers = append(markers, legacySummaryMarkers...)
	for _, m := range markers {
		text = strings.ReplaceAll(text, m, strings.Trim(m, "*# "))
	}
	return text
}
