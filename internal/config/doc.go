// Package config loads, normalizes, and validates the TOML configuration for
// the stalker daemon and CLI.
//
// Defaults live in Default, environment fallbacks and path expansion happen in
// normalize, and Validate rejects configurations the daemon cannot run with.
// All consumers receive a fully normalized Config; no other package reads the
// config file or environment directly.
package config
