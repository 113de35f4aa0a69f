package db

import "embed"

// MigrationsDir is the goose directory inside Migrations.
const MigrationsDir = "migrations"

// Migrations holds the schema, applied at startup with pg.Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS
