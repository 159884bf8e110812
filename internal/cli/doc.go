// Package cli wires together the Cobra command tree for the mreview binary.
//
// It defines the root command and all subcommands (gitlab, github, local,
// config, models, cache, hook, version), binds flags, reads configuration,
// runs a reconciliation pass, and returns deterministic exit codes for CI.
package cli
