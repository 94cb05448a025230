// Package migrations embeds the DocGuard schema, one directory per SQL
// dialect. Both directories carry the same numbered files; db.MigrateUp
// picks the set that matches the database driver.
package migrations

import "embed"

// SqliteMigrations is the schema for sqlite:// databases: INTEGER 0/1
// booleans and TEXT timestamps.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

// PostgresMigrations is the same schema for postgres:// databases.
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
