// Package db opens the SQLite history database and manages its schema
// through embedded golang-migrate migrations.
package db

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// pragmas are applied to every connection opened through Open.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// DB wraps the SQL handle for the history database.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path, applies the
// standard pragmas and migrates the schema to the latest version.
func Open(path string) (*DB, error) {
	db, err := OpenNoMigrate(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(Migrations()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenNoMigrate opens the database and applies pragmas without touching
// the schema.
func OpenNoMigrate(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; WAL readers share the connection.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	log.Printf("[db] opened %s", path)
	return &DB{sqlDB}, nil
}
