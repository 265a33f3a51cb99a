// Package config loads, validates, and normalizes idlens configuration from
// TOML. Defaults are usable without a config file; an embedded sample config
// documents every option.
package config
