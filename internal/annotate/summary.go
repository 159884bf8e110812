package annotate

import (
	"fmt"
	"strings"
)

// Stats are the counters reported in the summary note.
type Stats struct {
	FilesReviewed     int `json:"filesReviewed"`
	CommentsPublished int `json:"commentsPublished"`
	CommentsDeleted   int `json:"commentsDeleted"`
	DeleteFailures    int `json:"deleteFailures,omitempty"`
	CommentFailures   int `json:"commentFailures,omitempty"`
}

// Placeholder is the body of a freshly created summary note, shown while the
// pass is still running.
func Placeholder() string {
	return SummaryMarker + "\n\n⏳ Review in progress..."
}

// Summary renders the final summary note. footer is appended in small print
// when non-empty.
func Summary(st Stats, footer string) string {
	var b strings.Builder
	b.WriteString(SummaryMarker + "\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Files reviewed | %d |\n", st.FilesReviewed)
	fmt.Fprintf(&b, "| Comments | %d |\n", st.CommentsPublished)
	fmt.Fprintf(&b, "| Stale comments deleted | %d |\n", st.CommentsDeleted)
	if st.DeleteFailures > 0 {
		fmt.Fprintf(&b, "| Failed deletions | %d |\n", st.DeleteFailures)
	}
	if st.CommentFailures > 0 {
		fmt.Fprintf(&b, "| Failed comments | %d |\n", st.CommentFailures)
	}
	b.WriteString("\n")

	if st.CommentsPublished == 0 {
		b.WriteString("✨ No significant issues found.\n")
	} else {
		b.WriteString("👆 See the inline comments.\n")
	}

	if footer = neutralize(footer); footer != "" {
		fmt.Fprintf(&b, "\n<sub>%s</sub>\n", footer)
	}
	return b.String()
}
