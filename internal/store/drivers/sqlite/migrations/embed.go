// Package migrations embeds the SQLite schema migration files so the binary
// can bring a fresh database up to date without external assets.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
