// Package config loads storyreel's TOML configuration.
//
// Load applies defaults, decodes the file when it exists, expands "~" in
// paths and validates the result. A missing file is not an error.
package config
