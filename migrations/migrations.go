// Package migrations embeds the database schema so tests and tooling can
// apply it without locating files on disk.
package migrations

import _ "embed"

//go:embed schema.sql
var Schema string
