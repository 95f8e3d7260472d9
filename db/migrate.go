// Package db embeds the SQL migrations shipped with the binary.
package db

import "embed"

// Migrations holds the versioned schema migrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS
