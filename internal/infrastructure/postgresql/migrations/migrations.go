// Package migrations embeds the ledger schema.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files of the ledger schema.
//
//go:embed *.sql
var FS embed.FS
