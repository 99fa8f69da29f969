// Package migrations holds the versioned SQLite schema, embedded in the binary.
package migrations

import "embed"

// FS contains every NNN_name.sql migration file
//
//go:embed *.sql
var FS embed.FS
