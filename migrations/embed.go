// Package migrations embeds the SQL schema for profiles, queries and media.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
