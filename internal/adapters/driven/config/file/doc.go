// Package file provides a TOML file-based implementation of the
// ConfigStore port. Configuration lives at ~/.ariata/config.toml and
// nested tables are flattened to dot-notation keys on load.
package file
