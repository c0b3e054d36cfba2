// Package migrations embeds the MySQL schema migrations applied by
// golang-migrate from cmd/migrate and, optionally, at server startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
