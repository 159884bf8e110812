package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// TextWriter outputs a human-readable dry-run report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	ew.printf("mreview dry run: %s\n", report.Unit)
	if report.RunID != "" {
		ew.printf("Run: %s\n", report.RunID)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files reviewed: %d | Comments: %d | Stale comments deleted: %d\n",
		report.Stats.FilesReviewed, report.Stats.CommentsPublished, report.Stats.CommentsDeleted)
	if report.Stats.DeleteFailures > 0 || report.Stats.CommentFailures > 0 {
		ew.printf("Failed deletions: %d | Failed comments: %d\n",
			report.Stats.DeleteFailures, report.Stats.CommentFailures)
	}
	ew.println(strings.Repeat("─", 60))

	if len(report.Comments) == 0 {
		ew.println("\nNo comments would be posted.")
	}

	comments := append(report.Comments[:0:0], report.Comments...)
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].Path != comments[j].Path {
			return comments[i].Path < comments[j].Path
		}
		return comments[i].Line < comments[j].Line
	})

	lastPath := ""
	for _, c := range comments {
		if c.Path != lastPath {
			ew.printf("\n%s\n", c.Path)
			ew.println(strings.Repeat("─", 40))
			lastPath = c.Path
		}
		ew.printf("  line %d\n", c.Line)
		for _, para := range strings.Split(c.Body, "\n") {
			if para == "" {
				ew.println("")
				continue
			}
			for _, line := range wrapText(para, 70) {
				ew.printf("    %s\n", line)
			}
		}
	}

	if report.Summary != "" {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		ew.println("Summary note:")
		ew.println(report.Summary)
	}
	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
