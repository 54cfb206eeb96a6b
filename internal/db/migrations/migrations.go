// Package migrations embeds the goose SQL migrations of the question bank.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
