// Package migrations embeds the SQLite schema migrations for the
// embedded-file backend.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
