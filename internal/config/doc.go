// Package config loads, normalizes, and validates matuwall configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours XDG_CONFIG_HOME/XDG_CACHE_HOME.
// Out-of-range thumbnail sizes are clamped rather than rejected; unknown
// enumerations (shape, panel edge, theme mode) fail validation.
//
// Stamp exposes the (mtime, size) fingerprint the daemon polls to notice
// edits without a filesystem watcher.
package config
