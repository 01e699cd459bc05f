// Package migrations embeds the SQL schema migrations so the server and
// the migrate CLI can apply them without the files on disk.
package migrations

import "embed"

// FS holds every *.sql migration
//
//go:embed *.sql
var FS embed.FS
