// Package cache provides the suggestion cache tiers: a volatile
// in-process map, a durable SQLite-backed store, and a layered composite
// that reads the fast tier first and writes through to both.
package cache
