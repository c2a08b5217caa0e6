// Package migrations embeds the SQL schema migrations for the SQLite
// store.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
