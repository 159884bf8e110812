// Package output renders what a dry-run pass would publish.
//
// Two formats are supported: text for a terminal and json for scripts. Use
// [GetWriter] to obtain a [Writer] for a format string, or [WriteReport] to
// write straight to a file or stdout.
package output
