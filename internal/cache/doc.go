// Package cache provides a file-based cache for advisory responses.
//
// Entries are keyed by a SHA-256 hash of the provider name, model, and the
// full (already redacted) prompt, so a second pass over an unchanged file
// returns the same findings without calling the provider again. Each entry
// stores the raw response with a creation timestamp and a TTL in seconds.
//
// The default directory is $XDG_CACHE_HOME/mreview (or the OS-appropriate
// equivalent).
package cache
