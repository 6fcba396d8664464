// Package migrations embeds the SQL schema migrations so the binary can run them without a working directory layout
package migrations

import "embed"

// FS holds the *.sql migration files
//
//go:embed *.sql
var FS embed.FS
