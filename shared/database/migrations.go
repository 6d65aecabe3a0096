package database

import "embed"

// MigrationsFS содержит SQL-миграции схемы админки.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath - каталог миграций внутри MigrationsFS.
const MigrationsPath = "migrations"
