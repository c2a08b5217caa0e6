// Package file provides the TOML-backed settings store used for
// persisted, non-secret configuration, with optional live reload when
// the file changes on disk.
package file
