// Package config loads and validates the TOML configuration for the wcagscan
// CLI.
//
// Configuration resolution prefers an explicit --config path, then
// ~/.config/wcagscan/config.toml, then a wcagscan.toml in the working
// directory, and finally built-in defaults. Loaded configs are normalized
// (paths expanded, empty values replaced with defaults) and validated before
// use, so downstream packages can rely on every field being populated and
// sane.
//
// Derived paths for the supervised server (pid file, advisory lock, output
// log) and the local history database all live under paths.data_dir; keep new
// on-disk artifacts there as well.
package config
