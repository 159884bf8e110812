package diffmap

import (
	"strconv"
	"strings"
)

// EligibleLines returns the new-file line numbers of every added line in
// diff, in the order they appear. Lines before the first valid hunk header
// have no position and are never eligible. A malformed header later in the
// diff leaves the cursor where it was.
func EligibleLines(diff string) []int {
	var lines []int
	cursor := 0
	seen := false

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			if start, ok := hunkNewStart(line); ok {
				cursor = start
				seen = true
			}
		case !seen:
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			lines = append(lines, cursor)
			cursor++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			// Removed lines do not exist in the new file.
		case strings.HasPrefix(line, `\`):
		default:
			cursor++
		}
	}
	return lines
}

// hunkNewStart extracts the new-file start line from a header such as
// "@@ -1,2 +10,3 @@ func main() {". The count after the comma is ignored.
func hunkNewStart(header string) (int, bool) {
	_, rest, ok := strings.Cut(header, "+")
	if !ok {
		return 0, false
	}
	field, _, _ := strings.Cut(rest, "+")
	field, _, _ = strings.Cut(field, "@@")
	field = strings.TrimSpace(field)
	start, _, _ := strings.Cut(field, ",")
	n, err := strconv.Atoi(start)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LineSet is a membership index over eligible lines.
type LineSet map[int]struct{}

// NewLineSet builds a LineSet from lines.
func NewLineSet(lines []int) LineSet {
	s := make(LineSet, len(lines))
	for _, l := range lines {
		s[l] = struct{}{}
	}
	return s
}

// Contains reports whether line is eligible.
func (s LineSet) Contains(line int) bool {
	_, ok := s[line]
	return ok
}
