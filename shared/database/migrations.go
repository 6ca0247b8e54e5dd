package database

import "embed"

// MigrationsFS holds the SQL migrations, embedded so the binary can migrate
// the schema at startup without shipping files alongside it.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath is the directory inside MigrationsFS.
const MigrationsPath = "migrations"
