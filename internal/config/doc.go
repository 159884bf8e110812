// Package config loads and merges mreview configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CI_PROJECT_ID, GITLAB_TOKEN, AI_PROVIDER, MAX_FILE_SIZE, etc.)
//  3. Config file (.mreview.yml in the working directory, else $XDG_CONFIG_HOME/mreview/config.yml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write the user config
// file, and [SetField] to update a single key.
package config
