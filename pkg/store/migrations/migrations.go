// Package migrations embeds the SQL migrations for the auction store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
