// Package migrations embeds the PostgreSQL schema migrations for the
// document-database backend.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
