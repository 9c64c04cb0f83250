// Package sqlite records clustering runs in the SQLite history database.
//
// A run is one simulation session; each recorded tick stores a summary row
// plus one row per published cluster, written in a single transaction so
// a tick is either fully present or absent. The schema lives in the
// migrations embedded by internal/db.
package sqlite
