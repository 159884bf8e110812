// Package reconcile keeps a review unit's automated comments in sync with a
// fresh set of findings.
//
// A pass removes every comment mreview published before, makes sure exactly
// one summary note exists, analyzes the selected files, publishes findings
// that land on added lines and finally rewrites the summary with the run's
// counters. Running the same pass twice over an unchanged change set leaves
// the same comments and a single summary behind.
package reconcile
