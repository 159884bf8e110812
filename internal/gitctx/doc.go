// Package gitctx reviews a local revision range without a hosting service.
//
// [Repo] implements forge.Store by shelling out to git: the change set is
// the diff between the merge base and the head of the range, split per file
// with go-gitdiff, and file content is read from the object database at the
// head revision. Notes and positioned comments are recorded in memory so the
// CLI can print the annotations a real pass would publish.
package gitctx
