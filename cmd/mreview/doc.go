// Mreview publishes LLM review comments on merge requests and keeps them in
// sync with the latest revision.
//
// Each pass deletes the comments a previous pass left behind, reviews every
// changed file, and anchors findings only to lines that are present in the
// diff. A single summary note reports the counts for the pass.
//
// Usage:
//
//	mreview gitlab                      # review the merge request from GitLab CI variables
//	mreview gitlab --project 42 --mr 7  # review a specific merge request
//	mreview github 123                  # review a GitHub pull request
//	mreview local origin/main..HEAD     # preview comments for a local range
//	mreview hook install                # preview comments before every push
package main
