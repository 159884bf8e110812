// Package github implements forge.Store against the GitHub REST API for a
// single pull request.
//
// Line comments ("review comments") play the role of discussions and
// conversation comments play the role of notes; the summary note lives in
// the conversation. Positioned comments are single-line comments on the
// RIGHT side at the head commit. The owner/repo pair can be detected from
// the local origin remote.
package github
