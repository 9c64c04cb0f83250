package db

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesPragmasAndMigrations(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)

	version, dirty, err := db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	for _, table := range []string{"cluster_runs", "cluster_ticks", "cluster_tick_clusters"} {
		var n int
		require.NoError(t, db.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n))
		assert.Equal(t, 1, n, "table %s", table)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err, "migrating an up-to-date database is a no-op")
	defer db.Close()
}

func TestMigrateDownAndVersion(t *testing.T) {
	db, err := OpenNoMigrate(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateUp(Migrations()))
	require.NoError(t, db.MigrateDown(Migrations()))

	version, _, err = db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='cluster_tick_clusters'`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestMigrateUp_Errors(t *testing.T) {
	db, err := OpenNoMigrate(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, db.MigrateUp(nil))

	broken := fstest.MapFS{
		"000001_broken.up.sql":   {Data: []byte("CREATE TABLE (;")},
		"000001_broken.down.sql": {Data: []byte("")},
	}
	assert.Error(t, db.MigrateUp(broken))
}
