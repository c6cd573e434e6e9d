// Package migrations embeds the goose migrations for the accounts schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
