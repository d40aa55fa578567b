// Package config loads, normalizes, and validates Descant's TOML
// configuration.
//
// Configuration resolution order: an explicit --config path, then
// ~/.config/descant/config.toml, then ./descant.toml, and finally built-in
// defaults when no file exists. Path fields are tilde-expanded and made
// absolute during normalization so downstream packages never deal with
// relative paths.
package config
