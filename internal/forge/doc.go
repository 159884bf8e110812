// Package forge defines the change-tracking service contract the
// reconciliation engine works against: the ChangeSet of a review unit (a
// merge or pull request, or a local revision range), its discussions and
// notes, and the Store interface that reads and mutates them.
//
// Implementations live in internal/gitlab, internal/github and
// internal/gitctx. A Store is bound to exactly one review unit.
package forge
