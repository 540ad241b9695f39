package datastore

import "embed"

// Migrations holds the goose SQL migrations, rooted at MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
