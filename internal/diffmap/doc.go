// Package diffmap converts the unified diff of a single file into the set of
// new-file line numbers that may host an inline review comment.
//
// Only added lines are eligible. Context lines advance the new-file cursor,
// removed lines do not, and "\ No newline at end of file" markers are
// ignored. Hunk headers that cannot be parsed are skipped without error and
// leave the cursor where it was.
package diffmap
