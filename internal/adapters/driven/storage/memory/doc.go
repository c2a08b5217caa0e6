// Package memory provides in-memory store adapters used in tests and
// for ephemeral runs where nothing should touch the filesystem.
package memory
