// Package annotate renders review findings into comment bodies and owns the
// content markers that identify comments mreview has published.
//
// The authorship marker tags every inline comment; the summary marker heads
// the single run-statistics note. Both have legacy spellings that are still
// recognized so that comments left by earlier releases are pruned and reused.
// [IsAuthored] and [IsSummary] are the only places that decide ownership.
package annotate
