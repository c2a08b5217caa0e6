// Package sqlite provides the durable storage tier: a single SQLite
// database holding the secret store and the durable cache tier, with
// embedded schema migrations.
package sqlite
